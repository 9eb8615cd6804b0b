package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/pmkscan/internal/app"
	"github.com/lcalzada-xor/pmkscan/internal/config"
	"github.com/lcalzada-xor/pmkscan/internal/telemetry"
)

func main() {
	// load config
	cfg := config.Load()

	// Setup Structured Logging
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize Tracing
	shutdownTracer := func(context.Context) error { return nil }
	if cfg.Trace {
		shutdown, err := telemetry.InitTracer(os.Stderr)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			shutdownTracer = shutdown
		}
	}

	code := run(cfg)
	if err := shutdownTracer(context.Background()); err != nil {
		slog.Error("Failed to shutdown tracer", "error", err)
	}
	os.Exit(code)
}

func run(cfg *config.Config) int {
	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer application.Close()

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		return 1
	}
	return 0
}
