package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fleetledger/internal/auth"
	"fleetledger/internal/config"
	"fleetledger/internal/events"
	apphttp "fleetledger/internal/http"
	applog "fleetledger/internal/log"
	"fleetledger/internal/store"
	memstore "fleetledger/internal/store/memory"
	sqlitestore "fleetledger/internal/store/sqlite"
)

func main() {
	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: "fleetledger",
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		st      store.Store
		cleanup func() error = func() error { return nil }
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := sqlitestore.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		st = repo
		cleanup = repo.Close
		logger.Info("sqlite store initialized", "path", cfg.SQLiteDBPath)
	default:
		st = memstore.New()
		logger.Info("memory store initialized")
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, change events will not be published")
	}
	defer publisher.Close()

	authSvc := auth.NewService(st, st, cfg.JWTSecret, cfg.SessionTTL)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Store:              st,
		Auth:               authSvc,
		Publisher:          publisher,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 0 // SSE connections stay open indefinitely
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
