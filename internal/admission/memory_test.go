package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{
	RequestsPerPeriod: 3,
	TimePeriod:        20 * time.Second,
	CooldownPeriod:    100 * time.Second,
}

// fakeClock drives a MemoryCounterStore through time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

func (fc *fakeClock) Advance(d time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.now = fc.now.Add(d)
}

func TestMemoryCounterStoreAllowsWithinBudget(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)

	for i := 0; i < 3; i++ {
		eval, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
		require.NoError(t, err)
		assert.Equal(t, StateAllowed, eval.State, "request %d should be allowed", i+1)
		assert.Equal(t, 2-i, eval.Remaining)
	}
}

func TestMemoryCounterStoreTriggersCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)

	for i := 0; i < 3; i++ {
		_, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
		require.NoError(t, err)
	}

	eval, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateCooldownTriggered, eval.State)
	assert.Equal(t, testPolicy.CooldownPeriod, eval.RetryAfter)

	// Requests during the cooldown are denied and do not extend it.
	clock.Advance(30 * time.Second)
	eval, err = store.RecordAndEvaluate(ctx, "member:a", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateInCooldown, eval.State)
	assert.Equal(t, 70*time.Second, eval.RetryAfter)

	clock.Advance(40 * time.Second)
	eval, err = store.RecordAndEvaluate(ctx, "member:a", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateInCooldown, eval.State)
	assert.Equal(t, 30*time.Second, eval.RetryAfter, "retry after must shrink as the cooldown runs down")
}

func TestMemoryCounterStoreWindowResetsAfterCooldown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)

	for i := 0; i < 4; i++ {
		_, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
		require.NoError(t, err)
	}

	// Once the cooldown expires, the window starts empty again.
	clock.Advance(testPolicy.CooldownPeriod + time.Second)
	eval, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateAllowed, eval.State)
	assert.Equal(t, 2, eval.Remaining)
}

func TestMemoryCounterStoreWindowSlides(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)

	for i := 0; i < 3; i++ {
		_, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
		require.NoError(t, err)
		clock.Advance(8 * time.Second)
	}

	// The first two hits (24s and 16s ago) have left the 20 second window,
	// so this is the third hit in the window and still fits.
	eval, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateAllowed, eval.State)
}

func TestMemoryCounterStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)

	for i := 0; i < 4; i++ {
		_, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
		require.NoError(t, err)
	}

	eval, err := store.RecordAndEvaluate(ctx, "member:b", testPolicy)
	require.NoError(t, err)
	assert.Equal(t, StateAllowed, eval.State, "one identity's cooldown must not affect another")
}

func TestMemoryCounterStoreConcurrentBurst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCounterStore(time.Minute)
	defer store.Close()

	const n = 10
	results := make(chan State, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eval, err := store.RecordAndEvaluate(ctx, "member:a", testPolicy)
			assert.NoError(t, err)
			results <- eval.State
		}()
	}
	wg.Wait()
	close(results)

	var allowed, triggered, inCooldown int
	for state := range results {
		switch state {
		case StateAllowed:
			allowed++
		case StateCooldownTriggered:
			triggered++
		case StateInCooldown:
			inCooldown++
		}
	}

	assert.Equal(t, testPolicy.RequestsPerPeriod, allowed, "exactly the budget may pass")
	assert.Equal(t, 1, triggered, "exactly one request trips the cooldown")
	assert.Equal(t, n-testPolicy.RequestsPerPeriod-1, inCooldown)
}

func TestMemoryCounterStoreEviction(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryCounterStoreAt(clock.Now)
	store.cleanupInterval = 30 * time.Second

	ctx := context.Background()
	_, err := store.RecordAndEvaluate(ctx, "member:idle", testPolicy)
	require.NoError(t, err)

	// Trip a cooldown for another key; it must survive eviction.
	for i := 0; i < 4; i++ {
		_, err := store.RecordAndEvaluate(ctx, "member:penalised", testPolicy)
		require.NoError(t, err)
	}

	// 80s is past the 60s staleness threshold but inside the 100s cooldown.
	clock.Advance(80 * time.Second)
	store.evictStale()

	store.mu.Lock()
	_, idleKept := store.windows["member:idle"]
	_, penalisedKept := store.windows["member:penalised"]
	store.mu.Unlock()

	assert.False(t, idleKept, "stale window should be evicted")
	assert.True(t, penalisedKept, "active cooldown must not be evicted")
}
