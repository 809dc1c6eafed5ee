package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/go-coders/groq-relay/internal/keypool"
	"github.com/go-coders/groq-relay/internal/server"
	"github.com/go-coders/groq-relay/pkg/config"
	"github.com/go-coders/groq-relay/pkg/logger"
	"github.com/go-coders/groq-relay/pkg/util"
)

// Version will be set by GoReleaser
var Version = "dev"

func run(ctx context.Context, cfg *config.Config) error {
	srv := server.New(cfg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		select {
		case <-srv.Ready():
			// checked once for the operator; requests re-read the pool
			if pool, err := keypool.Resolve(keypool.NewViperSource(cfg.Viper, config.KeysEnv)); err != nil {
				logger.Warn("%s: %v; requests will fail until it is fixed", config.KeysEnv, err)
			} else {
				logger.Info("%d keys in pool", len(pool))
			}
		case <-ctx.Done():
		}
		return nil
	})
	return g.Wait()
}

func main() {
	printer := util.NewPrinter(os.Stderr)

	opts, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.Version {
		fmt.Printf("groq-relay %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load(opts)
	if err != nil {
		printer.PrintError(fmt.Sprintf("config: %v", err))
		os.Exit(1)
	}
	if err := logger.Init(logger.Options{Debug: cfg.Debug, LogFile: cfg.LogFile}); err != nil {
		printer.PrintError(fmt.Sprintf("logger: %v", err))
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("groq-relay %s starting", Version)
	if err := run(ctx, cfg); err != nil {
		logger.Error("%v", err)
		stop()
		logger.Close()
		os.Exit(1)
	}
}
