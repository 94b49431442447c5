package admission

import (
	"context"
	"sync"
	"time"
)

// window holds one identity's request timestamps and cooldown state.
type window struct {
	hits          []time.Time
	cooldownUntil time.Time
	lastSeen      time.Time
}

// MemoryCounterStore is an in-process CounterStore. Counters are private to
// one service instance, so it suits single-instance deployments and tests.
// A background goroutine periodically evicts identities that have gone quiet.
type MemoryCounterStore struct {
	now             func() time.Time
	cleanupInterval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	closed  bool
}

// NewMemoryCounterStore creates a memory counter store and starts its
// eviction goroutine.
func NewMemoryCounterStore(cleanupInterval time.Duration) *MemoryCounterStore {
	m := &MemoryCounterStore{
		now:             time.Now,
		cleanupInterval: cleanupInterval,
		windows:         make(map[string]*window),
		done:            make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// newMemoryCounterStoreAt is like NewMemoryCounterStore but with an injectable
// clock and no eviction goroutine. Used by tests.
func newMemoryCounterStoreAt(now func() time.Time) *MemoryCounterStore {
	return &MemoryCounterStore{
		now:     now,
		windows: make(map[string]*window),
		done:    make(chan struct{}),
		closed:  true, // no goroutine to stop
	}
}

// RecordAndEvaluate records one request for key and reports the admission state.
func (m *MemoryCounterStore) RecordAndEvaluate(_ context.Context, key string, policy Policy) (Evaluation, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok {
		w = &window{}
		m.windows[key] = w
	}
	w.lastSeen = now

	if w.cooldownUntil.After(now) {
		return Evaluation{
			State:      StateInCooldown,
			RetryAfter: w.cooldownUntil.Sub(now),
		}, nil
	}

	// Drop hits that have slid out of the window, then record this one.
	cutoff := now.Add(-policy.TimePeriod)
	kept := w.hits[:0]
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	w.hits = append(kept, now)

	if len(w.hits) > policy.RequestsPerPeriod {
		w.hits = nil
		w.cooldownUntil = now.Add(policy.CooldownPeriod)
		return Evaluation{
			State:      StateCooldownTriggered,
			RetryAfter: policy.CooldownPeriod,
		}, nil
	}

	return Evaluation{
		State:     StateAllowed,
		Remaining: policy.RequestsPerPeriod - len(w.hits),
	}, nil
}

// Ping always succeeds; in-process counters have no connection to lose.
func (m *MemoryCounterStore) Ping(context.Context) error {
	return nil
}

// Close stops the eviction goroutine.
func (m *MemoryCounterStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.done)
		m.closed = true
	}
	return nil
}

func (m *MemoryCounterStore) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictStale()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryCounterStore) evictStale() {
	now := m.now()
	threshold := 2 * m.cleanupInterval

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, w := range m.windows {
		if now.Sub(w.lastSeen) > threshold && !w.cooldownUntil.After(now) {
			delete(m.windows, key)
		}
	}
}
