package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/txn"
)

func (a *app) transferCommand() *cobra.Command {
	var (
		to     string
		amount uint64
	)
	cmd := &cobra.Command{
		Use:   "transfer --to <address> --amount <n>",
		Short: "Send coins from the current account and wait for execution",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			recipient, err := keys.ParseAddress(to)
			if err != nil {
				return usageError{err}
			}
			_, c, err := a.currentCredential()
			if err != nil {
				return err
			}
			client, err := a.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			tx, err := a.buildAndSign(client, c, txn.Transfer{Recipient: recipient, Amount: amount})
			if err != nil {
				return err
			}
			if err := a.send(client, tx); err != nil {
				return err
			}
			ref, _ := tx.Ref()
			fmt.Fprintf(a.out, "Transferred %d to %s\nref: %s\n", amount, recipient, ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount to send")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) stateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state [address]",
		Short: "Print an account's resources (default: the current account)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usagef("%s takes at most one address", cmd.CommandPath())
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			var addr keys.Address
			if len(args) == 1 {
				parsed, err := keys.ParseAddress(args[0])
				if err != nil {
					return usageError{err}
				}
				addr = parsed
			} else {
				_, c, err := a.currentCredential()
				if err != nil {
					return err
				}
				addr = c.Address
			}

			client, err := a.dial()
			if err != nil {
				return err
			}
			defer client.Close()
			st, err := client.AccountState(a.ctx, addr)
			if err != nil {
				return err
			}
			digest, err := st.Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "address: %s\ndigest: %s\n", addr, digest)
			for _, k := range st.Keys() {
				v, _ := st.Get(k)
				fmt.Fprintf(a.out, "%s: %d bytes\n", k, len(v))
			}
			fmt.Fprintln(a.out, st)
			return nil
		},
	}
}
