package admission

import (
	"context"
	"log/slog"
	"time"
)

// Reason explains why a Decision came out the way it did.
type Reason string

const (
	ReasonAllowed          Reason = "allowed"
	ReasonDisabled         Reason = "disabled"
	ReasonInCooldown       Reason = "in_cooldown"
	ReasonCooldownTrigger  Reason = "cooldown_triggered"
	ReasonStoreUnavailable Reason = "store_unavailable"
	ReasonFailOpen         Reason = "fail_open"
)

// Decision is the controller's verdict on one request.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Remaining  int
	Limit      int
	RetryAfter time.Duration
}

// MetricsRecorder receives admission outcomes. Implemented by the
// observability package; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordDecision(reason string)
	RecordStoreError()
}

// Controller applies the admission policy to request identities.
type Controller struct {
	store    CounterStore
	policy   Policy
	enabled  bool
	failOpen bool
	metrics  MetricsRecorder
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Policy   Policy
	Enabled  bool
	FailOpen bool
	Metrics  MetricsRecorder
}

// NewController creates an admission controller over the given counter store.
func NewController(store CounterStore, opts ControllerOptions) *Controller {
	return &Controller{
		store:    store,
		policy:   opts.Policy,
		enabled:  opts.Enabled,
		failOpen: opts.FailOpen,
		metrics:  opts.Metrics,
	}
}

// Policy returns the window parameters the controller enforces.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Admit records one request for key and decides whether it may proceed.
// A store failure resolves according to the fail-open setting: admit and log,
// or deny with ReasonStoreUnavailable.
func (c *Controller) Admit(ctx context.Context, key string) Decision {
	if !c.enabled {
		return Decision{Allowed: true, Reason: ReasonDisabled, Limit: c.policy.RequestsPerPeriod}
	}

	eval, err := c.store.RecordAndEvaluate(ctx, key, c.policy)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordStoreError()
		}

		if c.failOpen {
			slog.Warn("Rate store unavailable, admitting request",
				"key", key,
				"error", err,
			)
			return c.record(Decision{Allowed: true, Reason: ReasonFailOpen, Limit: c.policy.RequestsPerPeriod})
		}

		slog.Error("Rate store unavailable, rejecting request",
			"key", key,
			"error", err,
		)
		return c.record(Decision{Allowed: false, Reason: ReasonStoreUnavailable, Limit: c.policy.RequestsPerPeriod})
	}

	switch eval.State {
	case StateInCooldown:
		return c.record(Decision{
			Allowed:    false,
			Reason:     ReasonInCooldown,
			Limit:      c.policy.RequestsPerPeriod,
			RetryAfter: eval.RetryAfter,
		})
	case StateCooldownTriggered:
		slog.Info("Cooldown triggered",
			"key", key,
			"limit", c.policy.RequestsPerPeriod,
			"cooldown", c.policy.CooldownPeriod,
		)
		return c.record(Decision{
			Allowed:    false,
			Reason:     ReasonCooldownTrigger,
			Limit:      c.policy.RequestsPerPeriod,
			RetryAfter: eval.RetryAfter,
		})
	default:
		return c.record(Decision{
			Allowed:   true,
			Reason:    ReasonAllowed,
			Limit:     c.policy.RequestsPerPeriod,
			Remaining: eval.Remaining,
		})
	}
}

func (c *Controller) record(d Decision) Decision {
	if c.metrics != nil {
		c.metrics.RecordDecision(string(d.Reason))
	}
	return d
}
