package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"quintry/internal/cli"
	"quintry/internal/config"
	"quintry/internal/history"
	"quintry/internal/history/sqlite"
	"quintry/internal/logging"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] save|list|clear|stats\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configDir, *envFile, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configDir, envFile string, args []string) error {
	cfg, err := config.Load(configDir, envFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := sqlite.Open(ctx, sqlite.Options{
		Path:        cfg.Storage.DatabasePath(),
		BusyTimeout: cfg.Storage.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to open history store", zap.String("path", cfg.Storage.DatabasePath()), zap.Error(err))
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close history store", zap.Error(err))
		}
	}()

	service := history.NewService(store, store, logger)
	return cli.Run(ctx, service, args, os.Stdin, os.Stdout)
}
