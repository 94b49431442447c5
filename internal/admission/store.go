// Package admission implements the request admission layer: bearer-token
// member authentication, privilege gating, and a per-identity sliding-window
// rate limiter with an escalating cooldown penalty. The rate counters live in
// a CounterStore so that multiple service instances share one view of each
// identity's budget.
package admission

import (
	"context"
	"time"
)

// State is the outcome of recording one request against an identity's window.
type State int

const (
	// StateAllowed means the request fit within the window budget.
	StateAllowed State = iota

	// StateInCooldown means a previously triggered cooldown is still active.
	StateInCooldown

	// StateCooldownTriggered means this request pushed the window over its
	// budget. The window is cleared and a fresh cooldown starts now.
	StateCooldownTriggered
)

func (s State) String() string {
	switch s {
	case StateAllowed:
		return "allowed"
	case StateInCooldown:
		return "in_cooldown"
	case StateCooldownTriggered:
		return "cooldown_triggered"
	default:
		return "unknown"
	}
}

// Evaluation is the result of a single RecordAndEvaluate round trip.
type Evaluation struct {
	State State

	// Remaining is the budget left in the current window. Meaningful only
	// when State is StateAllowed.
	Remaining int

	// RetryAfter is how long until the cooldown expires. Meaningful only
	// when State is StateInCooldown or StateCooldownTriggered.
	RetryAfter time.Duration
}

// Policy holds the window parameters a CounterStore evaluates against.
type Policy struct {
	RequestsPerPeriod int
	TimePeriod        time.Duration
	CooldownPeriod    time.Duration
}

// CounterStore records requests against per-identity sliding windows.
// Implementations must be safe for concurrent use, and RecordAndEvaluate must
// be atomic: concurrent calls for the same key may never both observe the
// window below budget and both be admitted past it.
type CounterStore interface {
	// RecordAndEvaluate records one request for key and reports the
	// resulting admission state in a single round trip.
	RecordAndEvaluate(ctx context.Context, key string, policy Policy) (Evaluation, error)

	// Ping reports whether the store is reachable. Used by health checks.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
