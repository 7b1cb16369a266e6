package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleetsync/internal/bus"
	"fleetsync/internal/config"
	"fleetsync/internal/simulator"
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

	sim := simulator.New(
		telemetryBus,
		cfg.SimulatorTrucks,
		time.Duration(cfg.SimulatorIntervalMS)*time.Millisecond,
	)
	sim.Run(ctx)
}
