// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import "testing"

func TestTokenBucket_Allow(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Allow() = false on request %d within capacity", i+1)
		}
	}
	if tb.Allow() {
		t.Error("Allow() = true after capacity exhausted")
	}
	if tb.Available() != 0 {
		t.Errorf("Available() = %d, want 0", tb.Available())
	}
}

func TestLimiter_PerChatIsolation(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow(1) {
		t.Fatal("first command from chat 1 was limited")
	}
	if l.Allow(1) {
		t.Error("second immediate command from chat 1 was allowed")
	}
	// A different chat has its own bucket.
	if !l.Allow(2) {
		t.Error("first command from chat 2 was limited")
	}
	if l.Stats() != 2 {
		t.Errorf("Stats() = %d, want 2", l.Stats())
	}
}
