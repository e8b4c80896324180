package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Incr scans for dead windows.
const sweepInterval = time.Minute

type windowState struct {
	reset time.Time
	count int64
}

// MemoryStore is the process-local fixed-window counter store. Closed
// windows are swept periodically so the map does not grow with every
// client address ever seen.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*windowState
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*windowState),
		now:     time.Now,
	}
}

// Incr implements Store. A request arriving after the window closes
// starts a fresh window with count 1.
func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	state, ok := m.windows[key]
	if !ok || !now.Before(state.reset) {
		state = &windowState{reset: now.Add(window)}
		m.windows[key] = state
	}
	state.count++
	return state.count, state.reset.Sub(now), nil
}

func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, state := range m.windows {
		if !now.Before(state.reset) {
			delete(m.windows, key)
		}
	}
}
