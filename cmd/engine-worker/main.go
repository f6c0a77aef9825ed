package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scenplan/internal/amqp"
	"scenplan/internal/backend"
	"scenplan/internal/cli"
	"scenplan/internal/export"
	"scenplan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("engine-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting engine-worker")

	be, err := backend.New(logger, cfg, nil)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	defer be.Close()

	// The worker exists to drain the queue; without a broker there is
	// nothing to consume.
	if be.AMQP == nil {
		logger.Error("AMQP connection required for the engine worker", "url", cfg.AMQPURL)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize spreadsheet export (optional)
	var exporter *export.SheetsExporter
	if cfg.SheetsExportEnabled() {
		exporter, err = export.NewSheetsExporter(ctx, cfg.SheetsSpreadsheetID,
			cfg.SheetsCredentialsFile, cfg.SheetsCredentialsJSON)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no spreadsheet configured")
	}

	w := worker.NewEngineWorker(be.Repo, be.Engine, exporter)

	// Pick up runs queued while no worker was listening.
	logger.Info("Performing startup requeue check...")
	if err := w.StartupRequeueCheck(ctx); err != nil {
		logger.Error("Startup requeue check failed", "error", err)
		// Don't exit - continue with normal consumption
	}

	go func() {
		err := be.AMQP.ConsumeEngineRuns(ctx, func(msg *amqp.EngineRunMessage) error {
			return w.HandleRunMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down worker...")
	cancel()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	case <-time.After(5 * time.Second):
		logger.Info("Worker shutdown complete")
	}
}
