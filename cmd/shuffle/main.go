// Command shuffle manages a developer's account credential and talks to a
// local development network.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/home"
	"shuffle.dev/shuffle/internal/config"
	"shuffle.dev/shuffle/internal/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// usageError marks a malformed invocation.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// exitCode asks run to exit with a specific status without printing.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

type app struct {
	ctx    context.Context
	env    config.Env
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger

	// networkFlag records an explicit --network so it beats project config.
	networkFlag bool
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitUsage
	}
	a := &app{ctx: ctx, env: env, in: in, out: out, errOut: errOut}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err = root.ExecuteContext(ctx)
	var code exitCode
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &code):
		return int(code)
	case errors.As(err, &usage), strings.HasPrefix(err.Error(), "unknown command"),
		strings.HasPrefix(err.Error(), "required flag"):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitFailure
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shuffle",
		Short:         "Developer tooling for Move projects on a local network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.networkFlag = cmd.Flags().Changed("network")
			a.logger = logging.New(a.errOut, a.env.LogLevel, logging.Format(a.env.LogFormat))
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	flags := root.PersistentFlags()
	flags.StringVar(&a.env.Home, "home", a.env.Home, "directory containing .shuffle (default: user home)")
	flags.StringVar(&a.env.Network, "network", a.env.Network, "gRPC address of the node")
	flags.DurationVar(&a.env.ConfirmTimeout, "confirm-timeout", a.env.ConfirmTimeout, "how long to wait for a transaction to execute")
	flags.StringVar(&a.env.LogLevel, "log-level", a.env.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		a.accountCommand(),
		a.transferCommand(),
		a.stateCommand(),
		a.projectCommand(),
		a.testCommand(),
		a.nodeCommand(),
	)
	return root
}

func (a *app) layout() (home.Layout, error) {
	dir, err := a.env.HomeDir()
	if err != nil {
		return home.Layout{}, err
	}
	return home.Resolve(dir), nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s takes no arguments", cmd.CommandPath())
	}
	return nil
}
