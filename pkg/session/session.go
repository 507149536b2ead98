// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/broker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/errors"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/metrics"
)

// State is the connection state of a session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Session is the per-chat binding between a chat identity and one broker
// connection. Created lazily by the Registry, never destroyed.
type Session struct {
	chatID   int64
	conn     broker.Conn
	notifier chat.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	state atomic.Int32
}

func newSession(chatID int64, dial broker.Dialer, notifier chat.Notifier, logger *slog.Logger, m *metrics.Metrics) *Session {
	s := &Session{
		chatID:   chatID,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
	s.conn = dial(broker.Events{
		OnConnected:    s.onConnected,
		OnDisconnected: s.onDisconnected,
		OnSubscribed:   s.onSubscribed,
		OnUnsubscribed: s.onUnsubscribed,
		OnMessage:      s.onMessage,
	})
	return s
}

// ChatID returns the chat identity owning this session.
func (s *Session) ChatID() int64 {
	return s.chatID
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// IsConnected reports whether the broker connection is established.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// BeginConnect initiates an asynchronous connection attempt. It returns
// ErrAlreadyConnected unless the session is disconnected, and does not wait
// for the handshake: completion is observed via the connect event.
func (s *Session) BeginConnect(host string, port int) error {
	if !s.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return errors.New("connect", s.chatID, errors.ErrAlreadyConnected)
	}

	if err := s.conn.Connect(host, port); err != nil {
		s.state.Store(int32(StateDisconnected))
		return errors.New("connect", s.chatID, err)
	}

	s.logger.Info("broker connect initiated",
		slog.Int64("chat", s.chatID),
		slog.String("host", host),
		slog.Int("port", port))
	return nil
}

// EndConnect requests termination of the active connection. The state
// transition to disconnected happens only on the resulting disconnect event.
func (s *Session) EndConnect() {
	s.conn.Disconnect()
}

// Subscribe forwards a topic subscription to the broker connection.
func (s *Session) Subscribe(topic string) error {
	if !s.IsConnected() {
		return errors.New("subscribe", s.chatID, errors.ErrNotConnected)
	}
	return s.conn.Subscribe(topic)
}

// Unsubscribe forwards a topic unsubscription to the broker connection.
func (s *Session) Unsubscribe(topic string) error {
	if !s.IsConnected() {
		return errors.New("unsubscribe", s.chatID, errors.ErrNotConnected)
	}
	return s.conn.Unsubscribe(topic)
}

// Publish forwards a message publication to the broker connection.
// Fire-and-forget: no acknowledgement event follows.
func (s *Session) Publish(topic, payload string) error {
	if !s.IsConnected() {
		return errors.New("publish", s.chatID, errors.ErrNotConnected)
	}
	return s.conn.Publish(topic, payload)
}

// Event callbacks. Invoked by the broker connection on its own goroutines.

func (s *Session) onConnected(code int) {
	s.state.Store(int32(StateConnected))
	s.countEvent("connected")
	s.notify(fmt.Sprintf("Successfully connected to mqtt broker (%d)", code))
}

func (s *Session) onDisconnected(code int) {
	// Unexpected drops produce both notifications, unexpected first.
	if code != broker.ResultSuccess {
		s.countEvent("connection_lost")
		s.notify(fmt.Sprintf("Unexpected disconnect (%d)", code))
	}
	s.state.Store(int32(StateDisconnected))
	s.countEvent("disconnected")
	s.notify(fmt.Sprintf("Successfully disconnected from mqtt broker (%d)", code))
}

func (s *Session) onSubscribed(id uint64) {
	s.countEvent("subscribed")
	s.notify(fmt.Sprintf("Successfully subscribed to topic (%d)", id))
}

func (s *Session) onUnsubscribed(id uint64) {
	s.countEvent("unsubscribed")
	s.notify(fmt.Sprintf("Successfully unsubscribed from topic (%d)", id))
}

func (s *Session) onMessage(topic string, payload []byte) {
	s.countEvent("message")
	s.notify(fmt.Sprintf("Topic %s message received: %s", topic, payload))
}

func (s *Session) notify(text string) {
	if err := s.notifier.Send(s.chatID, text); err != nil {
		s.logger.Error("chat notification failed",
			slog.Int64("chat", s.chatID),
			slog.String("error", err.Error()))
	}
}

func (s *Session) countEvent(event string) {
	if s.metrics != nil {
		s.metrics.BrokerEventsTotal.WithLabelValues(event).Inc()
	}
}
