package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"registro/internal/amqp"
	"registro/internal/cli"
	"registro/internal/ledger"
	gsheet "registro/internal/ledger/google"
	applog "registro/internal/log"
	"registro/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	logger.Info("Starting registro-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Mirror target missing - GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("Event source missing - AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker always mirrors into the shared spreadsheet, regardless of
	// which backend the server writes through.
	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:       cfg.GoogleSpreadsheetID,
		LedgerSheet:         cfg.GoogleLedgerSheet,
		OwnersSpreadsheetID: cfg.GoogleOwnersSpreadsheetID,
		OwnersSheet:         cfg.GoogleOwnersSheet,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	store := ledger.NewStore(sheetsClient, sheetsClient, true)
	mirror := worker.NewMirrorWorker(store)

	// Consume with automatic reconnect; the loop only returns when the
	// context is cancelled.
	done := make(chan error, 1)
	go func() {
		done <- amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, mirror.HandleEvent)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	waitForShutdown(logger, sigChan, done, cancel)
}

// waitForShutdown blocks until a signal arrives or the consumer stops. The
// done channel delivers exactly one value, so it is drained on the signal
// path only; if the consumer already returned there is nothing to wait for.
func waitForShutdown(logger *applog.Logger, sigChan <-chan os.Signal, done <-chan error, cancel context.CancelFunc) {
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		logger.Info("Shutting down worker...")
		cancel()
		select {
		case <-done:
			logger.Info("Worker shutdown complete")
		case <-time.After(5 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
	case err := <-done:
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
		logger.Info("Worker shutdown complete")
	}
}
