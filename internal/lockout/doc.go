// Package lockout tracks failed login attempts per identity and enforces a
// temporary block once a threshold is exceeded.
//
// # State machine
//
// Each identity is in one of three states: clear (no record), accumulating
// (1..MaxAttempts-1 failures inside the current window), or blocked
// (>= MaxAttempts failures, block duration not yet elapsed). The accumulation
// window and the block duration are independent: a failure after the window
// has lapsed starts a fresh record, while a block holds until BlockDuration
// has elapsed from the window's start, not from the most recent failure.
//
// # Architecture boundaries
//
// The package owns FailedAttemptRecord state exclusively. It makes no
// authentication decisions; the Engine decides when a failure or success is
// recorded. Callers supply the observation time so behavior is deterministic
// under an injected clock.
//
// # What this package must NOT do
//
//   - Read the wall clock.
//   - Inspect credentials or distinguish why an attempt failed.
package lockout
