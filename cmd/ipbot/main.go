package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ipbot/internal/config"
	"ipbot/internal/history"
	"ipbot/internal/logger"
	"ipbot/internal/monitor"
	"ipbot/internal/notify"
	"ipbot/internal/version"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, config.ErrCreatedTemplate) {
			fmt.Printf("Created %s. Please edit the configuration file and re-run this program.\n",
				config.DefaultConfigFile)
			os.Exit(0)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		_, _ = fmt.Fprintln(os.Stderr, "Either repair the existing configuration, or delete it and re-run this program.")
		os.Exit(1)
	}

	// Initialize logger
	zl, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func(zl *zap.Logger) {
		_ = zl.Sync()
	}(zl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize notifier manager
	manager, err := notify.NewManager(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to initialize notifiers", zap.Error(err))
	}

	// Open the change journal if enabled
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path, zl)
		if err != nil {
			zl.Fatal("Failed to open history store", zap.Error(err))
		}

		if cfg.History.RetentionDays > 0 {
			before := time.Now().AddDate(0, 0, -cfg.History.RetentionDays)
			if _, err := store.Prune(ctx, before); err != nil {
				zl.Warn("Failed to prune history", zap.Error(err))
			}
		}
	}

	// Create monitor
	fetcher := monitor.NewFetcher(cfg.Providers, zl)
	m, err := monitor.NewMonitor(cfg, fetcher, manager, store, zl)
	if err != nil {
		zl.Fatal("Failed to create monitor", zap.Error(err))
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start monitor in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	// Wait for signal or error
	select {
	case sig := <-sigChan:
		zl.Info("Received signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			zl.Error("Monitor error", zap.Error(err))
		}
	}

	// Graceful shutdown
	zl.Info("Shutting down...")
	cancel()

	if err := m.Stop(); err != nil {
		zl.Error("Shutdown error", zap.Error(err))
		os.Exit(1)
	}
}
