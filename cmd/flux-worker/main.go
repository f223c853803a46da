package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"flux/internal/amqp"
	"flux/internal/cli"
	applog "flux/internal/log"
	gsheet "flux/internal/sheets/google"
	"flux/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.MustLoadConfig(applog.ComponentWorker, cli.ValidateWorker)
	logger.Info("Starting flux-worker")

	mirror, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(mirror)

	ctx, stop, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close AMQP client", applog.FieldError, err.Error())
		}
	})

	go func() {
		err := client.ConsumeExpenseEvents(ctx, syncWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err.Error())
		}
		stop()
	}()

	logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
