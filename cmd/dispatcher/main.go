package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fluxpoint/dispatcher/internal/config"
	"github.com/fluxpoint/dispatcher/internal/delivery"
	"github.com/fluxpoint/dispatcher/internal/dispatcher"
	"github.com/fluxpoint/dispatcher/internal/shutdown"
	"github.com/fluxpoint/dispatcher/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeoutMs+1000) * time.Millisecond,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	storeClient := store.New(httpClient, cfg.InternalAPIBaseURL, cfg.InternalAPIToken)

	engine := delivery.NewEngine(httpClient, storeClient, delivery.Config{
		WorkerID:          cfg.WorkerID,
		ImmediateRetryMax: cfg.ImmediateRetryMax,
		RequestTimeoutMs:  cfg.RequestTimeoutMs,
		MaxAttempts:       cfg.MaxAttempts,
	}, logger)

	disp := dispatcher.New(storeClient, engine, dispatcher.Config{
		WorkerID:       cfg.WorkerID,
		PollIntervalMs: cfg.PollIntervalMs,
		BatchSize:      cfg.BatchSize,
		Concurrency:    cfg.Concurrency,
		LeaseMs:        cfg.LeaseMs,
	}, logger)

	gracePeriod := time.Duration(cfg.RequestTimeoutMs)*time.Millisecond + time.Second

	logger.Info("dispatcher: starting",
		slog.String("worker_id", cfg.WorkerID),
		slog.Int("batch_size", cfg.BatchSize),
		slog.Int("concurrency", cfg.Concurrency))

	err = shutdown.Run(context.Background(), gracePeriod, logger, disp.Run)
	if err != nil && err != context.Canceled {
		logger.Error("dispatcher: exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("dispatcher: stopped")
}
