package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// recordScript implements one admission round trip atomically on the Redis
// side. The window is a sorted set of request timestamps (millisecond scores,
// unique members) and the cooldown is a plain key with a millisecond TTL.
//
// Returns {state, value} where state is 0 allowed (value = remaining budget),
// 1 in cooldown (value = remaining cooldown ms), or 2 cooldown triggered
// (value = full cooldown ms).
var recordScript = redis.NewScript(`
local window_key = KEYS[1]
local cooldown_key = KEYS[2]
local now_ms = tonumber(ARGV[1])
local period_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cooldown_ms = tonumber(ARGV[4])
local entry = ARGV[5]

local ttl = redis.call("PTTL", cooldown_key)
if ttl > 0 then
	return {1, ttl}
end

redis.call("ZREMRANGEBYSCORE", window_key, "-inf", now_ms - period_ms)
redis.call("ZADD", window_key, now_ms, entry)
local count = redis.call("ZCARD", window_key)

if count > limit then
	redis.call("DEL", window_key)
	redis.call("SET", cooldown_key, "1", "PX", cooldown_ms)
	return {2, cooldown_ms}
end

redis.call("PEXPIRE", window_key, period_ms)
return {0, limit - count}
`)

// RedisCounterStore is a CounterStore backed by a shared Redis instance.
// Every evaluation is a single EVALSHA round trip, so concurrent requests
// from multiple service instances see one consistent window per identity.
type RedisCounterStore struct {
	client    *redis.Client
	keyPrefix string
	opTimeout time.Duration
}

// RedisOptions configures a RedisCounterStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string

	// OpTimeout bounds each round trip. Zero means no per-op deadline
	// beyond the caller's context.
	OpTimeout time.Duration
}

// NewRedisCounterStore connects to Redis and verifies the connection.
func NewRedisCounterStore(ctx context.Context, opts RedisOptions) (*RedisCounterStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "postboard:rate"
	}

	return &RedisCounterStore{
		client:    client,
		keyPrefix: prefix,
		opTimeout: opts.OpTimeout,
	}, nil
}

// RecordAndEvaluate records one request for key and reports the admission state.
func (rs *RedisCounterStore) RecordAndEvaluate(ctx context.Context, key string, policy Policy) (Evaluation, error) {
	if rs.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rs.opTimeout)
		defer cancel()
	}

	windowKey := rs.keyPrefix + ":window:" + key
	cooldownKey := rs.keyPrefix + ":cooldown:" + key
	now := time.Now()

	result, err := recordScript.Run(ctx, rs.client,
		[]string{windowKey, cooldownKey},
		now.UnixMilli(),
		policy.TimePeriod.Milliseconds(),
		policy.RequestsPerPeriod,
		policy.CooldownPeriod.Milliseconds(),
		// Unique member so simultaneous requests in the same millisecond
		// each count as one hit.
		fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()),
	).Result()
	if err != nil {
		return Evaluation{}, fmt.Errorf("record and evaluate %q: %w", key, err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return Evaluation{}, fmt.Errorf("record and evaluate %q: unexpected script result %v", key, result)
	}
	state, ok1 := values[0].(int64)
	value, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return Evaluation{}, fmt.Errorf("record and evaluate %q: unexpected script result %v", key, result)
	}

	switch State(state) {
	case StateAllowed:
		return Evaluation{State: StateAllowed, Remaining: int(value)}, nil
	case StateInCooldown:
		return Evaluation{State: StateInCooldown, RetryAfter: time.Duration(value) * time.Millisecond}, nil
	case StateCooldownTriggered:
		return Evaluation{State: StateCooldownTriggered, RetryAfter: time.Duration(value) * time.Millisecond}, nil
	default:
		return Evaluation{}, fmt.Errorf("record and evaluate %q: unknown state %d", key, state)
	}
}

// Ping verifies the Redis connection.
func (rs *RedisCounterStore) Ping(ctx context.Context) error {
	if rs.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rs.opTimeout)
		defer cancel()
	}
	return rs.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (rs *RedisCounterStore) Close() error {
	return rs.client.Close()
}
