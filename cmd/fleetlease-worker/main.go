package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fleetlease/internal/amqp"
	"fleetlease/internal/cli"
	"fleetlease/internal/report"
	gsheet "fleetlease/internal/report/google"
	"fleetlease/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fleetlease-worker")

	if cfg.DataBackend != "sqlite" {
		logger.Error("Worker requires the sqlite backend; the memory backend lives inside the web process", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Google Sheets report export is optional.
	var reports report.Writer
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		reports = client
		logger.Info("Google Sheets report enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.ReportSheetName)
	} else {
		logger.Info("Google Sheets report disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.NewReminderWorker(repo, reports)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeEvents(gctx, amqp.EventHandlers{
			LesseeRegistered: func(msg *amqp.LesseeRegisteredMessage) error {
				return w.HandleLesseeRegistered(gctx, msg)
			},
			PaymentRecorded: func(msg *amqp.PaymentRecordedMessage) error {
				return w.HandlePaymentRecorded(gctx, msg)
			},
		})
	})

	g.Go(func() error {
		return w.Run(gctx, cfg.ScanInterval)
	})

	logger.Info("Worker running", "scan_interval", cfg.ScanInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
