package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"fleetledger/internal/config"
	"fleetledger/internal/events"
	applog "fleetledger/internal/log"
	"fleetledger/internal/mirror"
	gsheet "fleetledger/internal/mirror/google"
	memmirror "fleetledger/internal/mirror/memory"
	sqlitestore "fleetledger/internal/store/sqlite"
	"fleetledger/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: "fleetledger-worker",
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataBackend != "sqlite" {
		logger.Error("the worker needs the sqlite backend to share state with the server")
		os.Exit(1)
	}

	repo, err := sqlitestore.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open sqlite store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var reportMirror mirror.ReportMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		reportMirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		reportMirror = memmirror.New()
		logger.Info("Google Sheets disabled, mirroring to memory only")
	}

	w := worker.NewReportWorker(repo, repo, reportMirror)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = events.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(ev *events.ChangeEvent) error {
		return w.HandleChange(ctx, ev)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
