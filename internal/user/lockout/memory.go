package lockout

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	failures    int
	lockedUntil time.Time
	lastFailure time.Time
}

// Memory keeps lockout state in process. It is used when no Redis is
// configured and only protects a single API instance.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemory(policy Policy) *Memory {
	return &Memory{policy: policy, now: time.Now, entries: make(map[string]*entry)}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Locked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}

	return m.now().Before(e.lockedUntil), nil
}

func (m *Memory) RecordFailure(_ context.Context, key string) error {
	if !m.policy.enabled() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	e, ok := m.entries[key]
	if !ok || now.Sub(e.lastFailure) > m.policy.Window {
		e = &entry{}
		m.entries[key] = e
	}

	e.failures++
	e.lastFailure = now

	if e.failures >= m.policy.Threshold {
		e.lockedUntil = now.Add(m.policy.Window)
		e.failures = 0
	}

	return nil
}

func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}
