package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/arcourse/internal/config"
	"github.com/zeusync/arcourse/internal/core/observability/log"
	"github.com/zeusync/arcourse/internal/injector"
	"github.com/zeusync/arcourse/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Config file (.yaml, .yml or .toml)")
	dumpConfig := flag.Bool("dump-config", false, "Print the effective configuration as TOML and exit")
	flag.Parse()

	if *dumpConfig {
		cfg, err := injector.ProvideConfig(injector.ConfigPath(*configPath))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if err := config.WriteTOML(os.Stdout, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	srv, logger, err := injector.InitializeServer(injector.ConfigPath(*configPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, server.ErrServerClosed) {
		logger.Error("Server stopped", log.Error(err))
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
