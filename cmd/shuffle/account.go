package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/home"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/rotation"
	"shuffle.dev/shuffle/txn"
)

func (a *app) accountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Generate a new account key, archiving the current one",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			w := &rotation.Workflow{
				Layout: l,
				Prompt: rotation.NewLinePrompter(a.in, a.out),
				Logger: a.logger,
			}
			res, err := w.Run()
			if err != nil {
				return err
			}
			switch res.Outcome {
			case rotation.Generated:
				fmt.Fprintf(a.out, "Generated new key\naddress: %s\n", res.Credential.Address)
			case rotation.Rotated:
				fmt.Fprintf(a.out, "Archived previous key to %s\n", res.Snapshot.Dir)
				fmt.Fprintf(a.out, "Generated new key\naddress: %s\n", res.Credential.Address)
			case rotation.Declined:
				fmt.Fprintln(a.out, "Keeping existing key")
			}
			return nil
		},
	}
	cmd.AddCommand(
		a.accountShowCommand(),
		a.accountMnemonicCommand(),
		a.accountArchivesCommand(),
		a.accountCreateCommand(),
	)
	return cmd
}

func (a *app) currentCredential() (home.Layout, *keys.Credential, error) {
	l, err := a.layout()
	if err != nil {
		return l, nil, err
	}
	c, err := home.LoadCredential(l)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil, fmt.Errorf("no account key in %s; run `shuffle account` first", l.LatestPath)
	}
	return l, c, err
}

func (a *app) accountShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current account address and public key",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			_, c, err := a.currentCredential()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "address: %s\npublic key: %s\n", c.Address, c.PublicKeyHex())
			return nil
		},
	}
}

func (a *app) accountMnemonicCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mnemonic",
		Short: "Print a BIP-39 backup phrase for the current account key",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			_, c, err := a.currentCredential()
			if err != nil {
				return err
			}
			words, err := keys.Mnemonic(c)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, words)
			return nil
		},
	}
}

func (a *app) accountArchivesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archived account keys, oldest first",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			snaps, err := home.ListArchives(l)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				addr, err := keys.ReadAddressFile(s.AddressPath)
				if err != nil {
					a.logger.Warn().Err(err).Str("dir", s.Dir).Msg("unreadable archived address")
					fmt.Fprintf(a.out, "%d\t%s\t?\n", s.Timestamp, s.Time().UTC().Format("2006-01-02T15:04:05Z"))
					continue
				}
				fmt.Fprintf(a.out, "%d\t%s\t%s\n", s.Timestamp, s.Time().UTC().Format("2006-01-02T15:04:05Z"), addr)
			}
			return nil
		},
	}
}

func (a *app) accountCreateCommand() *cobra.Command {
	var initialBalance uint64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the current account on the network, funded by the root key",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			l, c, err := a.currentCredential()
			if err != nil {
				return err
			}
			root, err := keys.LoadKey(l.RootKeyPath)
			if err != nil {
				return fmt.Errorf("load root key: %w", err)
			}
			client, err := a.dial()
			if err != nil {
				return err
			}
			defer client.Close()

			tx, err := a.buildAndSign(client, root, txn.CreateAccount{
				Address:           c.Address,
				AuthenticationKey: c.AuthenticationKey(),
				InitialBalance:    initialBalance,
			})
			if err != nil {
				return err
			}
			if err := a.send(client, tx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created account %s\n", c.Address)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&initialBalance, "initial-balance", 0, "amount moved from the root account")
	return cmd
}
