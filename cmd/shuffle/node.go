package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/nodeconfig"
)

func (a *app) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the local development node's configuration",
	}
	var (
		force bool
		cfg   = nodeconfig.Default()
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write node.yaml and a fresh root (mint) key",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			if !force {
				for _, p := range []string{l.NodeConfigPath, l.RootKeyPath} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to replace)", p)
					} else if !errors.Is(err, fs.ErrNotExist) {
						return err
					}
				}
			}
			if err := nodeconfig.Write(l.NodeConfigPath, cfg); err != nil {
				return err
			}
			mint, err := keys.Generate(nil)
			if err != nil {
				return err
			}
			if err := keys.SaveKey(l.RootKeyPath, mint); err != nil {
				return err
			}
			a.logger.Info().Str("config", l.NodeConfigPath).Msg("node initialized")
			fmt.Fprintf(a.out, "Wrote %s\nroot address: %s\n", l.NodeConfigPath, mint.Address)
			return nil
		},
	}
	f := initCmd.Flags()
	f.BoolVar(&force, "force", false, "overwrite an existing configuration and root key")
	f.Uint8Var(&cfg.ChainID, "chain-id", cfg.ChainID, "chain id of the development network")
	f.StringVar(&cfg.GRPCListen, "grpc-listen", cfg.GRPCListen, "address the node listens on")
	f.DurationVar(&cfg.ConfirmDelay, "confirm-delay", cfg.ConfirmDelay, "how long transactions stay pending")
	f.Uint64Var(&cfg.InitialBalance, "initial-balance", cfg.InitialBalance, "balance of the root account at genesis")
	f.StringVar(&cfg.CASDir, "cas-dir", "", "directory persisting admitted transactions")
	cmd.AddCommand(initCmd)
	return cmd
}
