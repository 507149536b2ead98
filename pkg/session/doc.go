// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package session binds chat identities to broker connections.
//
// Each chat identity owns at most one Session. A Session owns one broker
// connection handle and a three-state connection word
// (disconnected → connecting → connected) that gates broker operations.
//
// # Concurrency
//
// The state word has a single-writer discipline: connection event callbacks
// write it, command-handling paths only read it. The one exception is the
// disconnected→connecting transition in BeginConnect, done with a
// compare-and-swap so overlapping connect commands cannot both start an
// attempt. Command handlers must read the state at call time and fail fast
// with ErrNotConnected; there is no ordering guarantee between a command and
// the completion of a previously issued connect.
//
// The Registry is the only structure mutated from multiple command paths;
// GetOrCreate is internally synchronized so at most one Session is ever
// created per chat identity. Sessions are never evicted.
package session
