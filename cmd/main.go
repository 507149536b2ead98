// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package main runs the Telegram to MQTT bridge.
//
// Usage:
//
//	telegram-mqtt <bot-token>
//
// The single required argument is the Telegram bot credential token. Tuning
// knobs come from the environment (optionally via a .env file).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/breaker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/bridge"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/broker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat/telegram"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/health"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/metrics"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/ratelimit"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/session"
)

// Config holds the application configuration.
type Config struct {
	// Observability
	MetricsPort int    `env:"TGMQ_METRICS_PORT" envDefault:"9090"`
	HealthPort  int    `env:"TGMQ_HEALTH_PORT"  envDefault:"8080"`
	LogLevel    string `env:"TGMQ_LOG_LEVEL"    envDefault:"info"`
	LogFormat   string `env:"TGMQ_LOG_FORMAT"   envDefault:"json"`

	// Broker client
	KeepAlive time.Duration `env:"TGMQ_MQTT_KEEPALIVE" envDefault:"60s"`

	// Telegram transport
	PollTimeout     time.Duration `env:"TGMQ_POLL_TIMEOUT"     envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"TGMQ_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-chat command rate limiting
	RateLimitCapacity int64 `env:"TGMQ_RATE_LIMIT_CAPACITY" envDefault:"20"`
	RateLimitRefill   int64 `env:"TGMQ_RATE_LIMIT_REFILL"   envDefault:"2"`

	// Circuit breaker on outbound sends
	BreakerMaxFailures  int           `env:"TGMQ_BREAKER_MAX_FAILURES"  envDefault:"5"`
	BreakerResetTimeout time.Duration `env:"TGMQ_BREAKER_RESET_TIMEOUT" envDefault:"60s"`

	// Resource limits
	MaxGoroutines int `env:"TGMQ_MAX_GOROUTINES" envDefault:"50000"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <bot-token>\n", os.Args[0])
		os.Exit(1)
	}
	token := os.Args[1]

	// Load .env file; optional
	if err := godotenv.Load(); err != nil {
		// environment variables only
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	m := metrics.New("tgmq")

	sendBreaker := breaker.New(breaker.Config{
		MaxFailures:  cfg.BreakerMaxFailures,
		ResetTimeout: cfg.BreakerResetTimeout,
	})

	transport, err := telegram.New(telegram.Config{
		Token:           token,
		PollTimeout:     cfg.PollTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Breaker:         sendBreaker,
		Metrics:         m,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("telegram authorization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registry := session.NewRegistry(session.Config{
		Dialer:   broker.NewPahoDialer(logger, cfg.KeepAlive),
		Notifier: transport,
		Logger:   logger,
		Metrics:  m,
	})

	dispatcher := bridge.New(bridge.Config{
		Registry: registry,
		Notifier: transport,
		Limiter:  ratelimit.NewLimiter(cfg.RateLimitCapacity, cfg.RateLimitRefill),
		Metrics:  m,
		Logger:   logger,
	})

	// Health checks
	healthChecker := health.NewChecker()
	healthChecker.Register("goroutines", func(ctx context.Context) error {
		count := runtime.NumGoroutine()
		m.GoroutinesActive.Set(float64(count))
		if count > cfg.MaxGoroutines {
			return fmt.Errorf("too many goroutines: %d > %d", count, cfg.MaxGoroutines)
		}
		return nil
	})
	healthChecker.Register("memory", func(ctx context.Context) error {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		m.MemoryAllocated.WithLabelValues("heap").Set(float64(stats.HeapAlloc))
		m.MemoryAllocated.WithLabelValues("sys").Set(float64(stats.Sys))
		return nil
	})
	healthChecker.Register("send_breaker", func(ctx context.Context) error {
		if state := sendBreaker.State(); state == breaker.StateOpen {
			return fmt.Errorf("telegram send circuit is %s", state)
		}
		return nil
	})

	go startMetricsServer(cfg.MetricsPort, logger)
	go startHealthServer(cfg.HealthPort, healthChecker, logger)

	g.Go(func() error {
		return transport.Listen(ctx, dispatcher.HandleMessage)
	})

	g.Go(func() error {
		return stopSignalHandler(ctx, cancel, logger)
	})

	logger.Info("telegram-mqtt bridge started",
		slog.Int("metrics_port", cfg.MetricsPort),
		slog.Int("health_port", cfg.HealthPort))

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("bridge terminated with error: %s", err))
	} else {
		logger.Info("bridge stopped")
	}
}

// setupLogger creates a logger with the specified level and format.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// startMetricsServer serves Prometheus metrics.
func startMetricsServer(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics server started", slog.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}

// startHealthServer serves liveness and readiness probes.
func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", health.LivenessHandler())
	mux.HandleFunc("/readyz", checker.ReadinessHandler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("health server started", slog.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("health server failed", slog.String("error", err.Error()))
	}
}

func stopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-c:
		logger.Info("received shutdown signal")
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
