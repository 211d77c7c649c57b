package limiter

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local fixed-window limiter. Each server process
// has an independent counter space; multi-instance deployments should
// use the redis backend instead.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemory creates a process-local limiter allowing max requests per window
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]*windowEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// SetClock overrides the limiter's clock. Tests only.
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

// Allow counts a request against key's current window
func (m *Memory) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	entry, ok := m.entries[key]
	if !ok || now.After(entry.resetAt) {
		m.entries[key] = &windowEntry{
			count:   1,
			resetAt: now.Add(m.window),
		}
		return true, 0, nil
	}

	if entry.count < m.max {
		entry.count++
		return true, 0, nil
	}

	return false, entry.resetAt.Sub(now), nil
}

// Sweep removes entries whose window has expired, bounding memory
// growth. Implements background.Sweeper.
func (m *Memory) Sweep(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := int64(0)

	for key, entry := range m.entries {
		if now.After(entry.resetAt) {
			delete(m.entries, key)
			removed++
		}
	}

	return removed, nil
}

// Len reports the number of tracked keys
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
