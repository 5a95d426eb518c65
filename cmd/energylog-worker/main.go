package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"energylog/internal/amqp"
	"energylog/internal/cli"
	"energylog/internal/log"
	"energylog/internal/metrics"
	"energylog/internal/sheets"
	gsheet "energylog/internal/sheets/google"
	memmirror "energylog/internal/sheets/memory"
	"energylog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)
	metrics.Init()

	logger.Info("Starting energylog-worker", "db_path", cfg.SQLiteDBPath)
	if cfg.DataBackend != "sqlite" {
		logger.Warn("Worker reads the SQLite database, but the server is configured for another backend",
			"backend", cfg.DataBackend)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	var mirror sheets.RecordMirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.NewFromEnv(ctx, cfg.Location())
		if err != nil {
			repo.Close()
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		// Sync bookkeeping still advances, which keeps the pending queue short
		// until a spreadsheet is configured.
		mirror = memmirror.New()
		logger.Info("Google Sheets disabled, mirroring in memory only")
	}

	w := worker.NewMirrorWorker(repo, mirror, cfg.SyncBatchSize)
	if err := w.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sync", log.FieldError, err)
		} else {
			defer client.Close()
			g.Go(func() error {
				return client.Consume(gctx, w.HandleChange)
			})
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic sync", "interval", cfg.SyncInterval)
	}
	g.Go(func() error {
		return w.Run(gctx, cfg.SyncInterval)
	})
	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.Handler())
		metricsSrv := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		cancel()
		repo.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
