// Package cli holds the start-up steps shared by cmd/weekbudget,
// cmd/weekbudget-worker and cmd/weekbudgetctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weekbudget/internal/backend"
	"weekbudget/internal/config"
	"weekbudget/internal/ledger"
	applog "weekbudget/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default. An unknown level falls back to info with a warning.
func SetupLogger(level, component string, out io.Writer) *applog.Logger {
	lvl, err := config.ParseLevel(level)
	logger := applog.New(applog.Config{Level: lvl, Component: component, Output: out})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger creates the configured backend and a ledger loaded from it.
// The caller owns the returned backend and must run its Cleanup.
func OpenLedger(ctx context.Context, logger *applog.Logger, cfg *config.Config, opts ...ledger.Option) (*ledger.Ledger, *backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create backend: %w", err)
	}

	base := []ledger.Option{ledger.WithLogger(logger.WithComponent(applog.ComponentLedger).Logger)}
	if res.Publisher != nil {
		base = append(base, ledger.WithPublisher(res.Publisher))
	}
	l := ledger.New(res.Store, append(base, opts...)...)
	l.Load(ctx)
	return l, res, nil
}

// GracefulShutdown waits for SIGINT or SIGTERM, then runs shutdown with a
// deadline of timeout. The returned context is cancelled once the signal
// arrives; done is closed after shutdown returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, shutdown func(context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if shutdown != nil {
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("Shutdown error", applog.FieldError, err)
				return
			}
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and shutdown is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
