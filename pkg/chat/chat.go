// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package chat defines the boundary between the bridge and the chat platform.
//
// The transport delivers inbound messages tagged with a chat identity and
// accepts outbound text sends. Everything else about the platform (polling,
// retries, formatting) stays behind this boundary.
package chat

// Message is one inbound chat message as seen by the bridge.
type Message struct {
	// ChatID uniquely names the conversation the message arrived in.
	ChatID int64

	// Text is the raw message text. Empty for non-text content.
	Text string

	// Private reports whether the message came from a one-to-one chat
	// rather than a group or channel.
	Private bool

	// IsText reports whether the message carries plain text content.
	IsText bool
}

// Notifier sends text back to a chat. Implementations must be safe for
// concurrent use: session event callbacks and command handlers send from
// different goroutines.
type Notifier interface {
	Send(chatID int64, text string) error
}

// NoopNotifier is a Notifier that discards all sends.
// Useful for testing.
type NoopNotifier struct{}

var _ Notifier = (*NoopNotifier)(nil)

func (n *NoopNotifier) Send(chatID int64, text string) error {
	return nil
}
