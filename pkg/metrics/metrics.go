// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides Prometheus instrumentation for the bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bridge.
type Metrics struct {
	// Command metrics
	CommandsTotal       *prometheus.CounterVec
	RateLimitedCommands prometheus.Counter

	// Session metrics
	SessionsActive prometheus.Gauge

	// Broker metrics
	BrokerEventsTotal *prometheus.CounterVec

	// Chat transport metrics
	NotificationsTotal *prometheus.CounterVec
	UpdatesTotal       prometheus.Counter

	// Resource metrics
	GoroutinesActive prometheus.Gauge
	MemoryAllocated  *prometheus.GaugeVec
}

// New creates a new Metrics instance with all counters and gauges.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tgmq"
	}

	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of chat commands processed",
			},
			[]string{"command", "status"},
		),
		RateLimitedCommands: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_commands_total",
				Help:      "Total number of commands rejected by the per-chat rate limiter",
			},
		),
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of live broker sessions (sessions are never evicted)",
			},
		),
		BrokerEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "broker_events_total",
				Help:      "Total number of broker connection events delivered",
			},
			[]string{"event"},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Total number of outbound chat notifications",
			},
			[]string{"status"},
		),
		UpdatesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Total number of inbound chat updates received",
			},
		),
		GoroutinesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "goroutines_active",
				Help:      "Number of active goroutines",
			},
		),
		MemoryAllocated: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memory_allocated_bytes",
				Help:      "Allocated memory in bytes",
			},
			[]string{"type"},
		),
	}
}
