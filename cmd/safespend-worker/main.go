package main

import (
	"context"
	"errors"
	"os"

	"safespend/internal/amqp"
	"safespend/internal/cli"
	"safespend/internal/config"
	applog "safespend/internal/log"
	"safespend/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), nil).WithComponent(applog.ComponentWorker)
	logger.Info("Starting safespend-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	mirror, err := cli.NewMirror(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	mw := worker.NewMirrorWorker(mirror, logger.Slog())

	// The sheet may have missed events while the worker was down.
	if cfg.MirrorResyncOnStart {
		store := cli.NewStore(cfg, logger)
		snaps, err := store.LoadReadOnly(ctx)
		if err != nil {
			logger.Warn("Skipping startup resync, data file unreadable", applog.FieldError, err)
		} else if err := mw.Resync(ctx, snaps); err != nil {
			logger.Error("Startup resync failed", applog.FieldError, err)
		}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Consume(ctx, mw.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		client.Close()
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
