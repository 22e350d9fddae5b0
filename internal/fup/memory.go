package fup

import (
	"context"
	"sync"
	"time"

	"github.com/shinyyama/ctrl-alt-block/internal/model"
)

type entry struct {
	count    int
	windowAt time.Time
}

// MemoryEnforcer applies the same policy as RedisEnforcer inside one
// process. Counters are lost on restart.
type MemoryEnforcer struct {
	mu      sync.Mutex
	entries map[string]*entry
	policy  Policy
	opts    options
}

func NewMemoryEnforcer(policy Policy, opts ...Option) *MemoryEnforcer {
	return &MemoryEnforcer{
		entries: make(map[string]*entry),
		policy:  policy,
		opts:    buildOptions(opts),
	}
}

func (m *MemoryEnforcer) EnforceTherapy(_ context.Context, userID string, tier model.UserTier) (Decision, error) {
	limits := m.policy.For(tier)
	now := m.opts.now()
	hourStart, dayStart := windows(now, m.opts.loc)

	m.mu.Lock()
	defer m.mu.Unlock()

	dayEnd := dayStart.AddDate(0, 0, 1)
	if !m.allow(DayKey(userID, dayStart), limits.PerDay, now, dayEnd) {
		return deny(WindowDay, limits.PerDay, dayEnd.Sub(now)), nil
	}
	hourEnd := hourStart.Add(time.Hour)
	if !m.allow(HourKey(userID, hourStart), limits.PerHour, now, hourEnd) {
		return deny(WindowHour, limits.PerHour, hourEnd.Sub(now)), nil
	}
	return allow(), nil
}

// allow must be called with m.mu held.
func (m *MemoryEnforcer) allow(key string, limit int, now, windowAt time.Time) bool {
	e, ok := m.entries[key]
	if !ok || !now.Before(e.windowAt) {
		m.entries[key] = &entry{count: 1, windowAt: windowAt}
		return 1 <= limit
	}
	e.count++
	return e.count <= limit
}

// Cleanup removes expired windows.
func (m *MemoryEnforcer) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	for key, e := range m.entries {
		if !now.Before(e.windowAt) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryEnforcer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Run calls Cleanup every interval until ctx is done.
func (m *MemoryEnforcer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
