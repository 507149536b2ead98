// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const defaultKeepAlive = 60 * time.Second

// PahoConn implements Conn on top of eclipse/paho.mqtt.golang.
//
// Auto-reconnect is disabled: the session state machine above this package is
// the single source of truth for connection state, so a silent reconnect
// behind its back would desynchronize it.
type PahoConn struct {
	events    Events
	logger    *slog.Logger
	keepAlive time.Duration

	mu     sync.Mutex
	client mqtt.Client

	opID atomic.Uint64
}

var _ Conn = (*PahoConn)(nil)

// NewPahoDialer returns a Dialer producing paho-backed connections.
func NewPahoDialer(logger *slog.Logger, keepAlive time.Duration) Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	if keepAlive == 0 {
		keepAlive = defaultKeepAlive
	}
	return func(events Events) Conn {
		return &PahoConn{
			events:    events,
			logger:    logger,
			keepAlive: keepAlive,
		}
	}
}

// Connect starts an asynchronous connection attempt. A fresh paho client is
// built per attempt so consecutive connects may target different brokers.
func (c *PahoConn) Connect(host string, port int) error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", host, port)).
		SetClientID("tgmq-" + uuid.NewString()).
		SetKeepAlive(c.keepAlive).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		c.emitConnected(ResultSuccess)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.logger.Debug("broker connection lost", slog.String("error", err.Error()))
		c.emitDisconnected(ResultFailure)
	})
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, m mqtt.Message) {
		c.emitMessage(m.Topic(), m.Payload())
	})

	client := mqtt.NewClient(opts)

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			// A failed handshake surfaces like an unexpected drop: the
			// command that triggered it never sees a synchronous error.
			c.logger.Debug("broker connect failed",
				slog.String("broker", fmt.Sprintf("%s:%d", host, port)),
				slog.String("error", err.Error()))
			c.emitDisconnected(ResultFailure)
		}
	}()

	return nil
}

// Disconnect tears down the client. Paho fires no callback for a requested
// disconnect, so the clean ResultSuccess event is synthesized here.
func (c *PahoConn) Disconnect() {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		client.Disconnect(250)
	}
	c.emitDisconnected(ResultSuccess)
}

// Subscribe registers interest in topic at QoS 0. The acknowledgement event
// carries a per-connection operation ID: paho does not expose the MQTT
// packet identifier on its tokens.
func (c *PahoConn) Subscribe(topic string) error {
	client, err := c.currentClient()
	if err != nil {
		return err
	}

	id := c.opID.Add(1)
	token := client.Subscribe(topic, 0, nil)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Warn("subscribe failed",
				slog.String("topic", topic),
				slog.String("error", err.Error()))
			return
		}
		c.emitSubscribed(id)
	}()

	return nil
}

// Unsubscribe removes interest in topic.
func (c *PahoConn) Unsubscribe(topic string) error {
	client, err := c.currentClient()
	if err != nil {
		return err
	}

	id := c.opID.Add(1)
	token := client.Unsubscribe(topic)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Warn("unsubscribe failed",
				slog.String("topic", topic),
				slog.String("error", err.Error()))
			return
		}
		c.emitUnsubscribed(id)
	}()

	return nil
}

// Publish sends payload to topic at QoS 0, fire-and-forget.
func (c *PahoConn) Publish(topic, payload string) error {
	client, err := c.currentClient()
	if err != nil {
		return err
	}
	client.Publish(topic, 0, false, payload)
	return nil
}

func (c *PahoConn) currentClient() (mqtt.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, fmt.Errorf("no active broker client")
	}
	return c.client, nil
}

func (c *PahoConn) emitConnected(code int) {
	if c.events.OnConnected != nil {
		c.events.OnConnected(code)
	}
}

func (c *PahoConn) emitDisconnected(code int) {
	if c.events.OnDisconnected != nil {
		c.events.OnDisconnected(code)
	}
}

func (c *PahoConn) emitSubscribed(id uint64) {
	if c.events.OnSubscribed != nil {
		c.events.OnSubscribed(id)
	}
}

func (c *PahoConn) emitUnsubscribed(id uint64) {
	if c.events.OnUnsubscribed != nil {
		c.events.OnUnsubscribed(id)
	}
}

func (c *PahoConn) emitMessage(topic string, payload []byte) {
	if c.events.OnMessage != nil {
		c.events.OnMessage(topic, payload)
	}
}
