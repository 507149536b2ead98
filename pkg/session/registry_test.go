// Copyright (c) Roman Oksyukovski
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/romanoksyukovski/telegram-mqtt/pkg/broker"
	"github.com/romanoksyukovski/telegram-mqtt/pkg/chat"
)

func newTestRegistry() *Registry {
	return NewRegistry(Config{
		Dialer:   func(ev broker.Events) broker.Conn { return &mockConn{} },
		Notifier: &chat.NoopNotifier{},
		Logger:   slog.Default(),
	})
}

func TestRegistry_GetOrCreate_Idempotent(t *testing.T) {
	r := newTestRegistry()

	first := r.GetOrCreate(42)
	second := r.GetOrCreate(42)
	if first != second {
		t.Error("GetOrCreate(42) returned distinct sessions")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if first.State() != StateDisconnected {
		t.Errorf("new session state = %v, want disconnected", first.State())
	}
}

func TestRegistry_GetOrCreate_DistinctIdentities(t *testing.T) {
	r := newTestRegistry()

	a := r.GetOrCreate(1)
	b := r.GetOrCreate(2)
	if a == b {
		t.Error("distinct chat identities share a session")
	}
	if a.ChatID() != 1 || b.ChatID() != 2 {
		t.Errorf("chat IDs = %d, %d", a.ChatID(), b.ChatID())
	}
}

func TestRegistry_GetOrCreate_Concurrent(t *testing.T) {
	r := newTestRegistry()

	const goroutines = 50
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = r.GetOrCreate(42)
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent GetOrCreate created more than one session")
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_Find(t *testing.T) {
	r := newTestRegistry()

	if _, ok := r.Find(42); ok {
		t.Error("Find() reported a session before creation")
	}
	if r.Len() != 0 {
		t.Error("Find() created a session as a side effect")
	}

	created := r.GetOrCreate(42)
	found, ok := r.Find(42)
	if !ok || found != created {
		t.Error("Find() did not return the created session")
	}
}
