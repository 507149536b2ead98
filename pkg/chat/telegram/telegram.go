// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package telegram implements the chat transport on the Telegram Bot API.
//
// Inbound updates arrive over long polling; each update is dispatched on its
// own goroutine, so commands from distinct chats may overlap. Outbound sends
// go through a circuit breaker so a dead Bot API does not get hammered by
// broker event notifications.
package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/breaker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/metrics"
)

// HandleFunc processes one inbound chat message.
type HandleFunc func(ctx context.Context, msg chat.Message)

// Config holds the Telegram transport configuration.
type Config struct {
	// Token is the bot credential token.
	Token string

	// PollTimeout is the long-poll timeout for update requests.
	PollTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for in-flight message
	// handlers to drain during graceful shutdown.
	ShutdownTimeout time.Duration

	// Breaker guards outbound sends. Optional.
	Breaker *breaker.CircuitBreaker

	// Metrics is optional instrumentation.
	Metrics *metrics.Metrics

	// Logger for transport events.
	Logger *slog.Logger
}

// Transport is the Telegram-backed chat transport. It implements
// chat.Notifier for outbound sends.
type Transport struct {
	config Config
	bot    *tgbotapi.BotAPI
	wg     sync.WaitGroup
}

var _ chat.Notifier = (*Transport)(nil)

// New authenticates against the Bot API and returns the transport.
func New(cfg Config) (*Transport, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info("authorized on telegram", slog.String("account", bot.Self.UserName))

	return &Transport{
		config: cfg,
		bot:    bot,
	}, nil
}

// Listen polls for updates and dispatches each message to handle on its own
// goroutine. It blocks until the context is cancelled, then drains in-flight
// handlers up to the shutdown timeout.
func (t *Transport) Listen(ctx context.Context, handle HandleFunc) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(t.config.PollTimeout.Seconds())

	updates := t.bot.GetUpdatesChan(u)
	t.config.Logger.Info("telegram transport started")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return t.drain()

		case update, ok := <-updates:
			if !ok {
				return t.drain()
			}
			if update.Message == nil {
				continue
			}
			if t.config.Metrics != nil {
				t.config.Metrics.UpdatesTotal.Inc()
			}

			msg := chat.Message{
				ChatID:  update.Message.Chat.ID,
				Text:    update.Message.Text,
				Private: update.Message.Chat.IsPrivate(),
				IsText:  update.Message.Text != "",
			}

			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				handle(ctx, msg)
			}()
		}
	}
}

// drain waits for in-flight handlers up to the shutdown timeout.
func (t *Transport) drain() error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.config.Logger.Info("all message handlers finished")
		return nil
	case <-time.After(t.config.ShutdownTimeout):
		t.config.Logger.Warn("shutdown timeout exceeded, abandoning in-flight handlers")
		return nil
	}
}

// Send delivers text to a chat, through the circuit breaker when configured.
func (t *Transport) Send(chatID int64, text string) error {
	send := func() error {
		_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
		return err
	}

	var err error
	if t.config.Breaker != nil {
		err = t.config.Breaker.Call(send)
	} else {
		err = send()
	}

	if t.config.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		t.config.Metrics.NotificationsTotal.WithLabelValues(status).Inc()
	}
	return err
}
