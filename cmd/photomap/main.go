package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/lcalzada-xor/photomap/internal/app"
	"github.com/lcalzada-xor/photomap/internal/config"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(2)
	}

	// Setup Structured Logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Tracing.Enabled {
		shutdownTracer, err := telemetry.InitTracer("photomap", version, os.Stderr)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("photomap starting...", "version", version, "addr", cfg.Addr)

	if err := application.Run(ctx); err != nil {
		slog.Error("Application error", "error", err)
		cancel()
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
