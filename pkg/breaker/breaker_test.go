// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package breaker

import (
	"errors"
	"testing"
	"time"
)

var errSend = errors.New("send failed")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := New(Config{MaxFailures: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if err := cb.Call(func() error { return errSend }); !errors.Is(err, errSend) {
			t.Fatalf("Call() error = %v, want errSend", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	err := cb.Call(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Call() while open error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New(Config{MaxFailures: 1, ResetTimeout: time.Millisecond, SuccessThreshold: 2})

	if err := cb.Call(func() error { return errSend }); !errors.Is(err, errSend) {
		t.Fatalf("Call() error = %v, want errSend", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(5 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("probe call %d failed: %v", i+1, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probes", cb.State())
	}
}

func TestCircuitBreaker_FailureInHalfOpenReopens(t *testing.T) {
	cb := New(Config{MaxFailures: 1, ResetTimeout: time.Millisecond})

	cb.Call(func() error { return errSend })
	time.Sleep(5 * time.Millisecond)

	if err := cb.Call(func() error { return errSend }); !errors.Is(err, errSend) {
		t.Fatalf("Call() error = %v, want errSend", err)
	}
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open after half-open failure", cb.State())
	}
}

func TestCircuitBreaker_ClosedResetsFailureCount(t *testing.T) {
	cb := New(Config{MaxFailures: 2, ResetTimeout: time.Hour})

	cb.Call(func() error { return errSend })
	cb.Call(func() error { return nil })
	cb.Call(func() error { return errSend })

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed: success should reset the failure count", cb.State())
	}
}
