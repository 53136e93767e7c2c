package lockout

import (
	"context"
	"sync"
	"time"
)

// Memory is the default in-process Limiter. State lives for the process
// lifetime, matching the engine's default in-memory credential store.
type Memory struct {
	config  Config
	mu      sync.Mutex
	records map[string]record
}

// NewMemory creates an in-memory lockout limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		config:  cfg,
		records: make(map[string]record),
	}
}

// IsBlocked implements Limiter.
func (m *Memory) IsBlocked(_ context.Context, identity string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identity]
	if !ok {
		return false, nil
	}
	return rec.blocked(m.config, now), nil
}

// RecordFailure implements Limiter.
func (m *Memory) RecordFailure(_ context.Context, identity string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identity]
	if !ok || rec.windowExpired(m.config, now) {
		m.records[identity] = record{attempts: 1, windowStart: now}
		return nil
	}

	rec.attempts++
	m.records[identity] = rec
	return nil
}

// RecordSuccess implements Limiter.
func (m *Memory) RecordSuccess(_ context.Context, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, identity)
	return nil
}
