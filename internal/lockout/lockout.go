package lockout

import (
	"context"
	"time"
)

// Config holds the lockout policy thresholds.
type Config struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// Limiter is the failed-attempt tracker consulted by the login flow. All
// methods take the observation time from the caller's clock.
type Limiter interface {
	// IsBlocked reports whether the identity is currently under a block:
	// a record exists, now is within BlockDuration of the record's window
	// start, and the attempt count has reached MaxAttempts.
	IsBlocked(ctx context.Context, identity string, now time.Time) (bool, error)

	// RecordFailure notes one failed attempt. A missing or window-expired
	// record is reset to one attempt with the window starting at now;
	// otherwise the count increments in place and the window start is
	// unchanged.
	RecordFailure(ctx context.Context, identity string, now time.Time) error

	// RecordSuccess clears the identity's record entirely.
	RecordSuccess(ctx context.Context, identity string) error
}

// record is a FailedAttemptRecord: the accumulation window anchor and the
// count of failures inside it.
type record struct {
	attempts    int
	windowStart time.Time
}

func (r record) blocked(cfg Config, now time.Time) bool {
	return r.attempts >= cfg.MaxAttempts && now.Sub(r.windowStart) < cfg.BlockDuration
}

func (r record) windowExpired(cfg Config, now time.Time) bool {
	return now.Sub(r.windowStart) > cfg.Window
}
