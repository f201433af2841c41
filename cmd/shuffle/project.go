package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/project"
	"shuffle.dev/shuffle/testharness"
)

func (a *app) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect the enclosing Shuffle project",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "root",
			Short: "Print the project root directory",
			Args:  noArgs,
			RunE: func(*cobra.Command, []string) error {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				root, err := project.FindRoot(cwd)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, root)
				return nil
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the project's Shuffle.toml settings",
			Args:  noArgs,
			RunE: func(*cobra.Command, []string) error {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				root, cfg, err := project.Discover(cwd)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "root: %s\nblockchain: %s\n", root, cfg.Blockchain)
				if cfg.Network != "" {
					fmt.Fprintf(a.out, "network: %s\n", cfg.Network)
				}
				return nil
			},
		},
	)
	return cmd
}

func (a *app) testCommand() *cobra.Command {
	var (
		root    string
		pattern string
		depRoot string
	)
	cmd := &cobra.Command{
		Use:   "test [flags] -- <runner command...>",
		Short: "Run module unit tests through an external runner",
		Long: `Collects the files under --root whose path matches --pattern, plus the .move
files under --dep-root, and runs the given command with the sources appended.
Dependency paths are passed in SHUFFLE_DEP_FILES. Exits 0 only if every test passed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				args = args[dash:]
			}
			if len(args) == 0 {
				return usagef("missing runner command after --")
			}
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				if root, err = project.FindRoot(cwd); err != nil {
					return err
				}
			}
			code := testharness.Run(testharness.Config{
				Runner: testharness.ExecRunner{Command: args, Dir: root, Context: a.ctx},
				Out:    a.out,
				Logger: a.logger,
			}, root, pattern, depRoot)
			if code != testharness.ExitPassed {
				return exitCode(code)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory to search for sources (default: project root)")
	cmd.Flags().StringVar(&pattern, "pattern", testharness.DepPattern, "regular expression selecting source paths")
	cmd.Flags().StringVar(&depRoot, "dep-root", "", "directory of dependency .move files")
	return cmd
}
