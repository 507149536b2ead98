// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package errors provides structured error handling for the bridge.
package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// ErrNotConnected indicates a broker operation was attempted without an
	// established broker connection.
	ErrNotConnected = errors.New("not connected to mqtt broker")

	// ErrAlreadyConnected indicates a connect attempt on a session that is
	// already connecting or connected.
	ErrAlreadyConnected = errors.New("already connected to mqtt broker")

	// ErrInvalidPort indicates the port parameter could not be parsed as a
	// positive integer.
	ErrInvalidPort = errors.New("invalid port")

	// ErrMissingParam indicates a required command parameter is absent.
	ErrMissingParam = errors.New("missing required parameter")

	// ErrRateLimited indicates the chat exceeded its command budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// BridgeError wraps an error with session context.
type BridgeError struct {
	Op     string // Operation that failed (connect, publish, ...)
	ChatID int64  // Chat identity owning the session
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s [chat %d]: %v", e.Op, e.ChatID, e.Err)
}

// Unwrap returns the underlying error.
func (e *BridgeError) Unwrap() error {
	return e.Err
}

// New creates a new BridgeError.
func New(op string, chatID int64, err error) error {
	if err == nil {
		return nil
	}
	return &BridgeError{
		Op:     op,
		ChatID: chatID,
		Err:    err,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
