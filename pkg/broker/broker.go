// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package broker defines the boundary to the MQTT broker and its paho-backed
// implementation.
//
// A Conn wraps one client connection. All operations are asynchronous:
// Connect returns once the attempt is started and completion arrives through
// the Events callbacks, on the connection's own goroutines. Implementations
// must accept operation calls (Subscribe, Publish, ...) from goroutines other
// than the ones delivering events.
package broker

// Result codes reported through connection events. Zero means a clean
// outcome; anything else is an unexpected failure.
const (
	ResultSuccess = 0
	ResultFailure = 1
)

// Events is the set of callbacks a Conn invokes on its own schedule.
// Nil callbacks are skipped.
type Events struct {
	// OnConnected fires when a connect attempt completes successfully.
	OnConnected func(code int)

	// OnDisconnected fires when the connection ends: code ResultSuccess for
	// a requested disconnect, nonzero for an unexpected drop or a failed
	// connect attempt.
	OnDisconnected func(code int)

	// OnSubscribed and OnUnsubscribed acknowledge topic operations by a
	// per-connection operation ID.
	OnSubscribed   func(id uint64)
	OnUnsubscribed func(id uint64)

	// OnMessage delivers one inbound message from a subscribed topic.
	OnMessage func(topic string, payload []byte)
}

// Conn is one broker connection handle.
type Conn interface {
	// Connect starts an asynchronous connection attempt to host:port.
	// It returns after the attempt is initiated; the outcome arrives via
	// OnConnected or OnDisconnected.
	Connect(host string, port int) error

	// Disconnect requests termination of the active connection attempt or
	// connection. The resulting OnDisconnected event carries ResultSuccess.
	Disconnect()

	// Subscribe registers interest in a topic. Acknowledged via OnSubscribed.
	Subscribe(topic string) error

	// Unsubscribe removes interest in a topic. Acknowledged via OnUnsubscribed.
	Unsubscribe(topic string) error

	// Publish sends a payload to a topic. Fire-and-forget: no acknowledgement.
	Publish(topic, payload string) error
}

// Dialer creates a Conn bound to the given event callbacks. Each session
// gets its own Conn.
type Dialer func(events Events) Conn
