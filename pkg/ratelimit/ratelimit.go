// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit provides per-chat command rate limiting using the token
// bucket algorithm.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrRateLimitExceeded is returned when rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// TokenBucket implements the token bucket algorithm for rate limiting.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int64
	tokens     int64
	refillRate int64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a new token bucket rate limiter.
// capacity is the maximum number of tokens.
// refillRate is the number of tokens added per second.
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request should be allowed.
// Returns true if allowed, false if rate limited.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// refill adds tokens based on elapsed time.
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tokensToAdd := int64(elapsed * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}
}

// Available returns the number of available tokens.
func (tb *TokenBucket) Available() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// Limiter tracks one token bucket per chat identity. Buckets live as long as
// the process, matching the session registry's no-eviction policy.
type Limiter struct {
	mu         sync.RWMutex
	buckets    map[int64]*TokenBucket
	capacity   int64
	refillRate int64
}

// NewLimiter creates a new rate limiter with per-chat tracking.
func NewLimiter(capacity, refillRate int64) *Limiter {
	return &Limiter{
		buckets:    make(map[int64]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
	}
}

// Allow checks if a command from the given chat should be allowed.
func (l *Limiter) Allow(chatID int64) bool {
	l.mu.RLock()
	tb, exists := l.buckets[chatID]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		// Double-check after acquiring write lock
		tb, exists = l.buckets[chatID]
		if !exists {
			tb = NewTokenBucket(l.capacity, l.refillRate)
			l.buckets[chatID] = tb
		}
		l.mu.Unlock()
	}

	return tb.Allow()
}

// Stats returns the number of tracked chats.
func (l *Limiter) Stats() (chats int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}
