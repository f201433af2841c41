// Command shuffle-devnetd serves a development ledger over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shuffle.dev/shuffle/devnet"
	"shuffle.dev/shuffle/home"
	"shuffle.dev/shuffle/internal/config"
	"shuffle.dev/shuffle/internal/logging"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/network/grpcnet"
	"shuffle.dev/shuffle/nodeconfig"
	"shuffle.dev/shuffle/storage"
	"shuffle.dev/shuffle/storage/localfs"
	"shuffle.dev/shuffle/storage/memcas"
)

// minStep bounds how often the ledger is stepped.
const minStep = 10 * time.Millisecond

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

type options struct {
	configPath string
	listen     string
	ready      func(addr string)
}

func run(ctx context.Context, args []string, errOut io.Writer) int {
	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	var opts options
	cmd := &cobra.Command{
		Use:           "shuffle-devnetd",
		Short:         "Serve a development ledger over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.New(errOut, env.LogLevel, logging.Format(env.LogFormat))
			return serve(cmd.Context(), env, opts, logger)
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(errOut)
	cmd.SetErr(errOut)
	f := cmd.Flags()
	f.StringVar(&env.Home, "home", env.Home, "directory containing .shuffle (default: user home)")
	f.StringVar(&opts.configPath, "config", "", "node.yaml path (default: <home>/.shuffle/nodeconfig/0/node.yaml)")
	f.StringVar(&opts.listen, "listen", "", "override grpc-listen from node.yaml")
	f.StringVar(&env.LogLevel, "log-level", "info", "log level")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, env config.Env, opts options, logger zerolog.Logger) error {
	dir, err := env.HomeDir()
	if err != nil {
		return err
	}
	l := home.Resolve(dir)
	if opts.configPath == "" {
		opts.configPath = l.NodeConfigPath
	}
	cfg, err := nodeconfig.Load(opts.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s not found; run `shuffle node init` first", opts.configPath)
	}
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.GRPCListen = opts.listen
	}
	mint, err := keys.LoadKey(l.RootKeyPath)
	if err != nil {
		return fmt.Errorf("load root key: %w", err)
	}

	var cas storage.CAS = memcas.New()
	if cfg.CASDir != "" {
		disk, err := localfs.New(cfg.CASDir, localfs.WithValidator(storage.ValidateTransaction))
		if err != nil {
			return err
		}
		archived, err := disk.Refs()
		if err != nil {
			return fmt.Errorf("scan transaction archive: %w", err)
		}
		logger.Info().Str("dir", disk.Root()).Int("transactions", len(archived)).Msg("transaction archive opened")
		cas = storage.ReplicatingCAS{
			Backends: []storage.NamedCAS{
				{Name: "memory", CAS: cas},
				{Name: "localfs", CAS: disk},
			},
			Logger: logger,
		}
	}

	ledger := devnet.New(devnet.Config{
		ChainID:      cfg.ChainID,
		ConfirmDelay: cfg.ConfirmDelay,
		CAS:          cas,
		Logger:       logger,
	})
	if err := ledger.Genesis(mint, cfg.InitialBalance); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		return err
	}
	srv := grpcnet.NewGRPCServer(ledger, logger)

	step := cfg.ConfirmDelay / 4
	if step < minStep {
		step = minStep
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = ledger.Run(ctx, step) }()
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	logger.Info().
		Str("listen", lis.Addr().String()).
		Uint8("chain_id", cfg.ChainID).
		Stringer("root", mint.Address).
		Dur("confirm_delay", cfg.ConfirmDelay).
		Msg("devnet listening")
	if opts.ready != nil {
		opts.ready(lis.Addr().String())
	}
	return srv.Serve(lis)
}
