package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"weekbudget/internal/cache"
	"weekbudget/internal/cli"
	apphttp "weekbudget/internal/http"
	applog "weekbudget/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger)

	l, res, err := cli.OpenLedger(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var cacheManager *cache.Manager
	if res.Cache != nil {
		cacheManager = cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
		cacheManager.Register(res.Cache)
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	srv := apphttp.NewServer(":"+cfg.Port, l,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(res.Ready),
	)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if cacheManager != nil {
			cacheManager.Stop()
		}
		if res.Cleanup != nil {
			err = errors.Join(err, res.Cleanup())
		}
		return err
	})

	snap := l.Snapshot()
	logger.Info("Starting weekbudget server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache", res.Cache != nil,
		"events", res.Publisher != nil,
		applog.FieldWeekID, snap.WeekID)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
