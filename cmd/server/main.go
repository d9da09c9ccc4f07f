package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/awnumar/memguard"

	"github.com/iudanet/localvault/internal/config"
	"github.com/iudanet/localvault/internal/server"
	"github.com/iudanet/localvault/internal/server/handlers"
	"github.com/iudanet/localvault/internal/storage"
	"github.com/iudanet/localvault/internal/storage/boltdb"
	"github.com/iudanet/localvault/internal/storage/sqlite"
	"github.com/iudanet/localvault/internal/vault"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	showVersion := fs.Bool("version", false, "Show version information")

	cfg, err := config.Parse(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		printVersion()
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// Затираем все залоченные буферы при любом выходе
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	svc := vault.NewService(store, logger, cfg.IdleTimeout, cfg.MaxUnlockDelay)
	defer svc.Close()

	handler := handlers.New(logger, svc)
	router := server.NewRouter(logger, handler, Version)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"address", cfg.Address,
			"engine", cfg.Engine,
			"version", Version,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// openStorage выбирает движок хранения по конфигурации.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Engine {
	case config.EngineBolt:
		return boltdb.New(ctx, filepath.Join(cfg.DataDir, "vault.bolt"))
	default:
		return sqlite.New(ctx, filepath.Join(cfg.DataDir, "vault.db"))
	}
}

func printVersion() {
	fmt.Printf("LocalVault Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
