package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"energylog/internal/backend"
	"energylog/internal/cache"
	"energylog/internal/cli"
	apphttp "energylog/internal/http"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	cli.LoadEnvFile()
	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)
	metrics.Init()

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	statsSvc := services.NewStatsService(res.Records, services.StatsConfig{
		Location:     cfg.Location(),
		StartMileage: cfg.Mileage(),
		OptimizeCost: cfg.OptimizeCost,
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
	})

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	for _, c := range statsSvc.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, res.Records, statsSvc, apphttp.Options{
		Location:           cfg.Location(),
		VehicleID:          cfg.VehicleID,
		ShareBaseURL:       cfg.ShareBaseURL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting energylog server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", cfg.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		exitCode = 1
		return
	}
	logger.Info("Server stopped gracefully")
}
