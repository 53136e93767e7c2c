package twofa

import (
	"errors"

	"github.com/veilkey/twofa/internal/lockout"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrIdentityExists is returned by Register when the identity is already
	// registered. The existing credential is never mutated.
	ErrIdentityExists = errors.New("identity already registered")
	// ErrIdentityNotFound is returned by CredentialStore implementations for
	// unknown identities. Login never surfaces it; an unknown identity is an
	// ordinary invalid-credentials outcome.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrStoreUnavailable indicates the credential store backend is unreachable.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrLockoutUnavailable indicates the lockout backend is unreachable. It
	// is the same sentinel the shipped Redis limiter wraps, re-exported so
	// callers can match it without importing internal packages.
	ErrLockoutUnavailable = lockout.ErrUnavailable
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidCredentials is returned by management operations such as
	// [Engine.RegenerateBackupCodes] when the caller's password or TOTP code
	// does not verify. Login never returns it; login failures are outcomes.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTemporarilyBlocked is returned by management operations while the
	// identity is under a lockout block.
	ErrTemporarilyBlocked = errors.New("identity temporarily blocked")
)
