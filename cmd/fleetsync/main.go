package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleetsync/internal/broadcast"
	"fleetsync/internal/bus"
	"fleetsync/internal/cache"
	"fleetsync/internal/config"
	"fleetsync/internal/metrics"
	"fleetsync/internal/pipeline"
	"fleetsync/internal/stats"
	"fleetsync/internal/store"
	httpapi "fleetsync/internal/transport/http"
	"fleetsync/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryBus, err := bus.New(ctx, cfg)
	if err != nil {
		slog.Error("redis connection failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	defer telemetryBus.Close()

	// History is optional: without a database the real-time pipeline still
	// runs, records just aren't persisted.
	history, err := store.New(ctx, cfg)
	if err != nil {
		slog.Warn("history store unavailable, running without persistence", "err", err)
		history = nil
	} else {
		defer history.Close()
	}

	// The cache is built once here and handed to everything that needs it.
	stateCache := cache.New()
	aggregator := stats.New(stateCache)
	hub := ws.NewHub()
	defer hub.Close()

	broadcaster := broadcast.New(telemetryBus, hub)
	dispatcher := pipeline.NewDispatcher(cfg.HistoryChannelSize)

	var writers sync.WaitGroup
	if history != nil {
		writer := pipeline.NewHistoryWriter(
			dispatcher.HistoryChan,
			history,
			cfg.HistoryBatchSize,
			cfg.HistoryFlushInterval,
		)
		writers.Add(1)
		go func() {
			defer writers.Done()
			// Runs until the dispatcher channel closes so the final batch
			// is flushed during shutdown.
			writer.Run(context.Background())
		}()
	}

	sub := telemetryBus.SubscribeInbound(ctx)
	raw := make(chan []byte, 1024)
	go bus.Forward(ctx, sub.Channel(), raw)

	ingestor := pipeline.NewIngestor(raw, stateCache, pipeline.NewEvaluator(), broadcaster, dispatcher)
	var workers sync.WaitGroup
	for i := 0; i < cfg.IngestWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			ingestor.Run(ctx)
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/metrics", metrics.HandleMetrics)
	httpapi.NewAPI(stateCache, aggregator, history).Register(mux)

	server := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux}
	go func() {
		slog.Info("fleetsync listening", "port", cfg.HTTPPort, "workers", cfg.IngestWorkers)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", "err", err)
	}

	sub.Close()
	workers.Wait()
	dispatcher.Close()
	writers.Wait()
}
