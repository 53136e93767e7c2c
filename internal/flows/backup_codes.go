package flows

import (
	"context"
	"time"
)

// RegenerateMetrics carries metric IDs used by the regeneration flow.
type RegenerateMetrics struct {
	Regenerated int
}

// RegenerateEvents carries audit event names used by the regeneration flow.
type RegenerateEvents struct {
	Regenerated string
}

// RegenerateErrors carries host-level sentinel errors used by the
// regeneration flow.
type RegenerateErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	Blocked            error
}

// RegenerateDeps captures backup code regeneration dependencies.
type RegenerateDeps struct {
	BackupCodeCount  int
	BackupCodeLength int

	Now func() time.Time

	IsBlocked     func(ctx context.Context, identity string, now time.Time) (bool, error)
	RecordFailure func(ctx context.Context, identity string, now time.Time) error

	GetCredential func(ctx context.Context, identity string) (CredentialRecord, error)
	IsNotFound    func(error) bool

	VerifyPassword      func(hash, password string) (bool, error)
	DummyVerifyPassword func(password string)
	VerifyTOTP          func(secret []byte, code string, now time.Time) (bool, error)

	NewBackupCodes     func(count, length int) ([]string, error)
	HashBackupCode     func(code string) [32]byte
	ReplaceBackupCodes func(ctx context.Context, identity string, hashes [][32]byte) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, eventType, identity string, success bool, failure error)

	Metrics RegenerateMetrics
	Events  RegenerateEvents
	Errors  RegenerateErrors
}

func normalizeRegenerateDeps(deps *RegenerateDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, string, bool, error) {}
	}
	if deps.IsNotFound == nil {
		deps.IsNotFound = func(error) bool { return false }
	}
	if deps.DummyVerifyPassword == nil {
		deps.DummyVerifyPassword = func(string) {}
	}
}

// RunRegenerateBackupCodes replaces an identity's backup code set. The caller
// must prove possession of the password and the live TOTP secret; a backup
// code is not accepted here, since a stolen code could otherwise mint a fresh
// set for itself. Failed proofs count against the lockout policy like failed
// logins.
func RunRegenerateBackupCodes(ctx context.Context, identity, password, totpCode string, deps RegenerateDeps) ([]string, error) {
	normalizeRegenerateDeps(&deps)

	if deps.IsBlocked == nil || deps.RecordFailure == nil || deps.GetCredential == nil ||
		deps.VerifyPassword == nil || deps.VerifyTOTP == nil ||
		deps.NewBackupCodes == nil || deps.HashBackupCode == nil || deps.ReplaceBackupCodes == nil {
		return nil, deps.Errors.EngineNotReady
	}

	now := deps.Now()

	blocked, err := deps.IsBlocked(ctx, identity, now)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, deps.Errors.Blocked
	}

	cred, err := deps.GetCredential(ctx, identity)
	if err != nil {
		if deps.IsNotFound(err) {
			deps.DummyVerifyPassword(password)
			return nil, deps.Errors.InvalidCredentials
		}
		return nil, err
	}

	passwordOK, err := deps.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	totpOK, err := deps.VerifyTOTP(cred.Secret, totpCode, now)
	if err != nil {
		return nil, err
	}

	if !passwordOK || !totpOK {
		if err := deps.RecordFailure(ctx, identity, now); err != nil {
			return nil, err
		}
		return nil, deps.Errors.InvalidCredentials
	}

	codes, err := deps.NewBackupCodes(deps.BackupCodeCount, deps.BackupCodeLength)
	if err != nil {
		return nil, err
	}
	hashes := make([][32]byte, len(codes))
	for i, code := range codes {
		hashes[i] = deps.HashBackupCode(code)
	}

	if err := deps.ReplaceBackupCodes(ctx, identity, hashes); err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.Regenerated)
	deps.EmitAudit(ctx, deps.Events.Regenerated, identity, true, nil)
	return codes, nil
}
