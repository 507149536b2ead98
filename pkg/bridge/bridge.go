// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package bridge dispatches parsed chat commands to broker sessions.
//
// One HandleMessage call per inbound chat message. The session is resolved
// (and lazily created) before grammar validation, so even a malformed first
// message from a new chat allocates its session. Every branch replies with an
// immediate acknowledgement of the request; asynchronous results arrive later
// through the session's event callbacks, outside this request cycle.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/command"
	bridgeerr "github.com/romanoksyukovski/telegram-mqtt/pkg/errors"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/metrics"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/ratelimit"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/session"
)

// Config holds the dispatcher dependencies.
type Config struct {
	Registry *session.Registry
	Notifier chat.Notifier
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Dispatcher routes chat commands to broker session operations and converts
// every failure into a chat reply. Nothing propagates past HandleMessage.
type Dispatcher struct {
	registry *session.Registry
	notifier chat.Notifier
	limiter  *ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a new Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		registry: cfg.Registry,
		notifier: cfg.Notifier,
		limiter:  cfg.Limiter,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// HandleMessage processes one inbound chat message end to end.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg chat.Message) {
	if d.limiter != nil && !d.limiter.Allow(msg.ChatID) {
		if d.metrics != nil {
			d.metrics.RateLimitedCommands.Inc()
		}
		d.logger.Debug("command rejected",
			slog.Int64("chat", msg.ChatID),
			slog.String("reason", bridgeerr.ErrRateLimited.Error()))
		d.reply(msg.ChatID, "You are sending commands too fast. Please slow down.")
		return
	}

	// Session creation precedes grammar validation.
	sess := d.registry.GetOrCreate(msg.ChatID)

	cmd, err := command.Parse(msg)
	if err != nil {
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			d.reply(msg.ChatID, verr.ChatText())
		} else {
			d.reply(msg.ChatID, "Sorry, I could not understand that command")
		}
		d.count("invalid", "rejected")
		return
	}

	switch cmd.Kind {
	case command.Connect:
		d.handleConnect(sess, cmd.Params)
	case command.Disconnect:
		d.handleDisconnect(sess)
	case command.IsConnected:
		d.handleIsConnected(sess)
	case command.Subscribe:
		d.handleSubscribe(sess, cmd.Params)
	case command.Unsubscribe:
		d.handleUnsubscribe(sess, cmd.Params)
	case command.Publish:
		d.handlePublish(sess, cmd.Params)
	}
}

func (d *Dispatcher) handleConnect(sess *session.Session, params map[string]string) {
	host, hasHost := params["host"]
	portStr, hasPort := params["port"]
	if !hasHost || !hasPort {
		d.rejectParams(sess.ChatID(), "connect", "Sorry, but connect command should have both host and port params")
		return
	}

	d.reply(sess.ChatID(), fmt.Sprintf("You requested to connect to '%s:%s'", host, portStr))

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		d.logger.Debug("command rejected",
			slog.Int64("chat", sess.ChatID()),
			slog.String("reason", bridgeerr.ErrInvalidPort.Error()),
			slog.String("port", portStr))
		d.reply(sess.ChatID(), "Sorry, but the port param should be a positive integer")
		d.count("connect", "rejected")
		return
	}

	if err := sess.BeginConnect(host, port); err != nil {
		if errors.Is(err, bridgeerr.ErrAlreadyConnected) {
			d.reply(sess.ChatID(), "You are already connected")
		} else {
			d.logger.Error("connect failed",
				slog.Int64("chat", sess.ChatID()),
				slog.String("error", err.Error()))
			d.reply(sess.ChatID(), "Sorry, the connection attempt could not be started")
		}
		d.count("connect", "error")
		return
	}
	d.count("connect", "ok")
}

func (d *Dispatcher) handleDisconnect(sess *session.Session) {
	d.reply(sess.ChatID(), "You requested to disconnect from mqtt broker")
	// No precondition: disconnect is idempotent even when not connected.
	sess.EndConnect()
	d.count("disconnect", "ok")
}

func (d *Dispatcher) handleIsConnected(sess *session.Session) {
	if sess.IsConnected() {
		d.reply(sess.ChatID(), "Yes, you are connected to a mqtt broker.")
	} else {
		d.reply(sess.ChatID(), "No, you are not connected to a mqtt broker.")
	}
	d.count("isconnected", "ok")
}

func (d *Dispatcher) handleSubscribe(sess *session.Session, params map[string]string) {
	topic, ok := params["topic"]
	if !ok {
		d.rejectParams(sess.ChatID(), "subscribe", "Sorry, but subscribe command should have a topic param specified")
		return
	}

	d.reply(sess.ChatID(), fmt.Sprintf("You asked to subscribe to %s topic.", topic))

	if err := sess.Subscribe(topic); err != nil {
		d.replyOperationError(sess.ChatID(), err)
		d.count("subscribe", "error")
		return
	}
	d.count("subscribe", "ok")
}

func (d *Dispatcher) handleUnsubscribe(sess *session.Session, params map[string]string) {
	topic, ok := params["topic"]
	if !ok {
		d.rejectParams(sess.ChatID(), "unsubscribe", "Sorry, but unsubscribe command should have a topic param specified")
		return
	}

	d.reply(sess.ChatID(), fmt.Sprintf("You asked to unsubscribe from %s topic.", topic))

	// Asymmetry with subscribe kept from the original bot: unsubscribing
	// while disconnected acknowledges the request and does nothing.
	if err := sess.Unsubscribe(topic); err != nil && !errors.Is(err, bridgeerr.ErrNotConnected) {
		d.replyOperationError(sess.ChatID(), err)
		d.count("unsubscribe", "error")
		return
	}
	d.count("unsubscribe", "ok")
}

func (d *Dispatcher) handlePublish(sess *session.Session, params map[string]string) {
	topic, hasTopic := params["topic"]
	payload, hasPayload := params["payload"]
	if !hasTopic || !hasPayload {
		d.rejectParams(sess.ChatID(), "publish", "Sorry, but publish command should have a topic and payload params specified")
		return
	}

	d.reply(sess.ChatID(), fmt.Sprintf("You asked to publish a message to %s topic with payload %s.", topic, payload))

	if err := sess.Publish(topic, payload); err != nil {
		d.replyOperationError(sess.ChatID(), err)
		d.count("publish", "error")
		return
	}
	d.count("publish", "ok")
}

// rejectParams handles a missing-required-parameter failure: no session
// mutation, one chat reply naming the required set.
func (d *Dispatcher) rejectParams(chatID int64, cmd, text string) {
	d.logger.Debug("command rejected",
		slog.Int64("chat", chatID),
		slog.String("command", cmd),
		slog.String("reason", bridgeerr.ErrMissingParam.Error()))
	d.reply(chatID, text)
	d.count(cmd, "rejected")
}

func (d *Dispatcher) replyOperationError(chatID int64, err error) {
	switch {
	case errors.Is(err, bridgeerr.ErrNotConnected):
		d.reply(chatID, "You are not connected to mqtt")
	default:
		d.logger.Error("broker operation failed",
			slog.Int64("chat", chatID),
			slog.String("error", err.Error()))
		d.reply(chatID, "Sorry, the broker operation failed")
	}
}

func (d *Dispatcher) reply(chatID int64, text string) {
	if err := d.notifier.Send(chatID, text); err != nil {
		d.logger.Error("chat reply failed",
			slog.Int64("chat", chatID),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) count(cmd, status string) {
	if d.metrics != nil {
		d.metrics.CommandsTotal.WithLabelValues(cmd, status).Inc()
	}
}
