package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/cryptopay/internals/config"
	"github.com/ngenohkevin/cryptopay/internals/monitoring"
	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/ngenohkevin/cryptopay/internals/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	opts, err := qrOptions(cfg)
	if err != nil {
		logger.Error("Invalid QR configuration", "error", err)
		os.Exit(1)
	}

	backend, err := qrcode.New(cfg.QRBackend)
	if err != nil {
		logger.Error("Invalid QR backend", "backend", cfg.QRBackend, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := monitoring.NewPrometheusRecorder(registry)

	cache := qrcode.NewCache(qrcode.Instrument(backend, cfg.QRBackend, recorder), cfg.QRCacheTTL, recorder)
	defer cache.Stop()

	srv, err := server.NewServer(logger, cfg, server.Deps{
		Encoder:  cache,
		Options:  opts,
		Sinks:    server.NewSinkRegistry(cfg, recorder, logger),
		Recorder: recorder,
		Sessions: monitoring.NewSessionLimiter(cfg.MaxWebSockets, logger, recorder.SetLiveSessions),
		Gatherer: registry,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exited cleanly")
}

// newLogger writes JSON in production and text everywhere else
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	logger := slog.New(handler).With("service", "cryptopay")
	slog.SetDefault(logger)
	return logger
}

func qrOptions(cfg *config.Config) (qrcode.Options, error) {
	if cfg.QRSize <= 0 {
		return qrcode.Options{}, fmt.Errorf("QR_SIZE must be positive, got %d", cfg.QRSize)
	}
	if cfg.QRMargin < 0 {
		return qrcode.Options{}, fmt.Errorf("QR_MARGIN must not be negative, got %d", cfg.QRMargin)
	}

	opts := qrcode.DefaultOptions()
	opts.Width = cfg.QRSize
	opts.Margin = cfg.QRMargin

	dark, err := qrcode.ParseHexColor(cfg.QRDark)
	if err != nil {
		return opts, err
	}
	light, err := qrcode.ParseHexColor(cfg.QRLight)
	if err != nil {
		return opts, err
	}
	level, err := qrcode.ParseLevel(cfg.QRLevel)
	if err != nil {
		return opts, err
	}

	opts.Dark = dark
	opts.Light = light
	opts.Level = level
	return opts, nil
}
