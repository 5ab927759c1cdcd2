// Package idempotency remembers webhook responses by caller-supplied key so
// redelivered events are answered without being applied twice.
package idempotency

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is how long a recorded response is replayed.
const DefaultTTL = 24 * time.Hour

// Response is a recorded reply.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Store records responses by key.
type Store interface {
	// Get returns the recorded response; ok is false when none exists.
	Get(ctx context.Context, key string) (resp Response, ok bool, err error)
	Put(ctx context.Context, key string, resp Response) error
	Close() error
}

type entry struct {
	resp      Response
	expiresAt time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewMemory returns an in-process store. ttl <= 0 uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Response, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Response{}, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return Response{}, false, nil
	}
	return e.resp, true, nil
}

func (m *Memory) Put(_ context.Context, key string, resp Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.entries[key] = entry{resp: resp, expiresAt: now.Add(m.ttl)}
	// Sweep on write keeps the map bounded by the write rate times ttl.
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
