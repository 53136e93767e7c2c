package twofa

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegenerateBackupCodes(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	engine := newTestEngine(t, clock)
	reg, secret := registerTestIdentity(t, engine, "a@x.com", "pw1")

	fresh, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now()))
	if err != nil {
		t.Fatalf("RegenerateBackupCodes failed: %v", err)
	}
	if len(fresh) != 5 {
		t.Fatalf("got %d codes, want 5", len(fresh))
	}

	// Old codes are dead, new codes work.
	result, err := engine.Login(context.Background(), "a@x.com", "pw1", reg.BackupCodes[0])
	if err != nil || result.Outcome != OutcomeInvalidCredentials {
		t.Fatalf("old code login: %v %v", result, err)
	}
	result, err = engine.Login(context.Background(), "a@x.com", "pw1", fresh[0])
	if err != nil || result.Outcome != OutcomeSuccess {
		t.Fatalf("new code login: %v %v", result, err)
	}
}

func TestRegenerateBackupCodesRequiresTOTPNotBackupCode(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	engine := newTestEngine(t, clock)
	reg, _ := registerTestIdentity(t, engine, "a@x.com", "pw1")

	if _, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "pw1", reg.BackupCodes[0]); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for a backup code, got %v", err)
	}
}

func TestRegenerateBackupCodesWrongCredentials(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	engine := newTestEngine(t, clock)
	_, secret := registerTestIdentity(t, engine, "a@x.com", "pw1")

	if _, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "wrong", totpCodeAt(t, secret, clock.Now())); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "pw1", "000000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.RegenerateBackupCodes(context.Background(), "ghost@x.com", "pw1", "000000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown identity, got %v", err)
	}
}

func TestRegenerateBackupCodesCountsTowardLockout(t *testing.T) {
	clock := newFakeClock(time.Unix(1700000000, 0))
	engine := newTestEngine(t, clock)
	_, secret := registerTestIdentity(t, engine, "a@x.com", "pw1")

	for i := 0; i < 3; i++ {
		if _, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "wrong", "000000"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	if _, err := engine.RegenerateBackupCodes(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now())); !errors.Is(err, ErrTemporarilyBlocked) {
		t.Fatalf("expected ErrTemporarilyBlocked, got %v", err)
	}

	// The same block applies to login.
	result, err := engine.Login(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now()))
	if err != nil || result.Outcome != OutcomeBlocked {
		t.Fatalf("login during block: %v %v", result, err)
	}
}
