// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"log/slog"
	"sync"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/broker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/metrics"
)

// Config holds the dependencies injected into every created Session.
type Config struct {
	// Dialer creates the broker connection handle for each new session.
	Dialer broker.Dialer

	// Notifier is the chat send capability shared by all sessions.
	Notifier chat.Notifier

	// Logger for session events.
	Logger *slog.Logger

	// Metrics is optional instrumentation.
	Metrics *metrics.Metrics
}

// Registry maps chat identities to their sessions. It exclusively owns all
// sessions and never evicts them within the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	config   Config
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[int64]*Session),
		config:   cfg,
	}
}

// GetOrCreate returns the session for chatID, creating it in the
// disconnected state if none exists yet. At most one session is ever created
// per identity, even under concurrent first contact.
func (r *Registry) GetOrCreate(chatID int64) *Session {
	r.mu.RLock()
	s, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := r.sessions[chatID]; ok {
		return s
	}

	s = newSession(chatID, r.config.Dialer, r.config.Notifier, r.config.Logger, r.config.Metrics)
	r.sessions[chatID] = s

	r.config.Logger.Info("session created", slog.Int64("chat", chatID))
	if r.config.Metrics != nil {
		r.config.Metrics.SessionsActive.Set(float64(len(r.sessions)))
	}
	return s
}

// Find returns the session for chatID without creating one.
func (r *Registry) Find(chatID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
