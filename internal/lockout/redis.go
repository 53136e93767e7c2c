package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the lockout backend is unreachable.
var ErrUnavailable = errors.New("lockout backend unavailable")

const (
	fieldAttempts    = "attempts"
	fieldWindowStart = "window_start"
)

// Redis keeps FailedAttemptRecords in a Redis hash per identity, so lockout
// state survives process restarts and is shared across engine instances.
// Attempt counts and window anchors are interpreted in Go against the
// caller-supplied time; Redis TTLs only garbage-collect records that can no
// longer influence a decision.
type Redis struct {
	client redis.UniversalClient
	config Config
	prefix string
}

// NewRedis creates a Redis-backed lockout limiter. Keys are namespaced under
// prefix.
func NewRedis(client redis.UniversalClient, prefix string, cfg Config) *Redis {
	return &Redis{client: client, config: cfg, prefix: prefix}
}

func (r *Redis) key(identity string) string {
	return r.prefix + ":lockout:" + identity
}

// retention is how long a record can still matter: the longer of the
// accumulation window and the block duration, counted from window start.
func (r *Redis) retention() time.Duration {
	if r.config.BlockDuration > r.config.Window {
		return r.config.BlockDuration
	}
	return r.config.Window
}

func (r *Redis) load(ctx context.Context, identity string) (record, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.key(identity)).Result()
	if err != nil {
		return record{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return record{}, false, nil
	}

	attempts, err := strconv.Atoi(fields[fieldAttempts])
	if err != nil {
		return record{}, false, fmt.Errorf("corrupt lockout record for %q: %v", identity, err)
	}
	startUnix, err := strconv.ParseInt(fields[fieldWindowStart], 10, 64)
	if err != nil {
		return record{}, false, fmt.Errorf("corrupt lockout record for %q: %v", identity, err)
	}

	return record{attempts: attempts, windowStart: time.Unix(startUnix, 0)}, true, nil
}

// IsBlocked implements Limiter.
func (r *Redis) IsBlocked(ctx context.Context, identity string, now time.Time) (bool, error) {
	rec, ok, err := r.load(ctx, identity)
	if err != nil || !ok {
		return false, err
	}
	return rec.blocked(r.config, now), nil
}

// RecordFailure implements Limiter.
func (r *Redis) RecordFailure(ctx context.Context, identity string, now time.Time) error {
	rec, ok, err := r.load(ctx, identity)
	if err != nil {
		return err
	}

	if !ok || rec.windowExpired(r.config, now) {
		rec = record{attempts: 1, windowStart: now}
	} else {
		rec.attempts++
	}

	// TTL is computed relative to the caller's clock so an injected test
	// clock never produces an already-expired deadline.
	remaining := rec.windowStart.Add(r.retention()).Sub(now)
	if remaining <= 0 {
		remaining = time.Second
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(identity),
		fieldAttempts, rec.attempts,
		fieldWindowStart, rec.windowStart.Unix(),
	)
	pipe.Expire(ctx, r.key(identity), remaining)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RecordSuccess implements Limiter.
func (r *Redis) RecordSuccess(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, r.key(identity)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
