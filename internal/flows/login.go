package flows

import (
	"context"
	"time"
)

// Outcome classifies a login attempt. The host package maps these onto its
// public outcome type.
type Outcome uint8

const (
	// OutcomeInvalid covers every credential failure, undifferentiated.
	OutcomeInvalid Outcome = iota
	// OutcomeSuccess means password and second factor both verified.
	OutcomeSuccess
	// OutcomeBlocked means the lockout policy refused the attempt.
	OutcomeBlocked
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	Outcome     Outcome
	AccessToken string
}

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginBlocked     int
	TOTPSuccess      int
	TOTPFailure      int
	BackupCodeUsed   int
	BackupCodeFailed int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess   string
	LoginFailure   string
	LoginBlocked   string
	BackupCodeUsed string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	Blocked            error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Now func() time.Time

	IsBlocked     func(ctx context.Context, identity string, now time.Time) (bool, error)
	RecordFailure func(ctx context.Context, identity string, now time.Time) error
	RecordSuccess func(ctx context.Context, identity string) error

	GetCredential func(ctx context.Context, identity string) (CredentialRecord, error)
	IsNotFound    func(error) bool

	VerifyPassword      func(hash, password string) (bool, error)
	DummyVerifyPassword func(password string)
	VerifyTOTP          func(secret []byte, code string, now time.Time) (bool, error)
	HashBackupCode      func(code string) [32]byte
	ConsumeBackupCode   func(ctx context.Context, identity string, codeHash [32]byte) (bool, error)

	// IssueToken is nil when token issuance is disabled.
	IssueToken func(identity string, now time.Time) (string, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, eventType, identity string, success bool, failure error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
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

// RunLogin executes the login flow: lockout check, credential lookup,
// password plus second-factor verification, then outcome recording.
//
// Ordering constraints honored here:
//   - A blocked identity is refused before any credential work, and no
//     failure is recorded for the refused attempt — blocking does not
//     compound.
//   - TOTP is tried before the backup code; a TOTP match never consumes a
//     code.
//   - Failures for unknown identities are not recorded, so an unregistered
//     identity can never reach the blocked state.
func RunLogin(ctx context.Context, identity, password, code string, deps LoginDeps) (*LoginResult, error) {
	normalizeLoginDeps(&deps)

	if deps.IsBlocked == nil || deps.RecordFailure == nil || deps.RecordSuccess == nil ||
		deps.GetCredential == nil || deps.VerifyPassword == nil || deps.VerifyTOTP == nil ||
		deps.HashBackupCode == nil || deps.ConsumeBackupCode == nil {
		return nil, deps.Errors.EngineNotReady
	}

	now := deps.Now()

	blocked, err := deps.IsBlocked(ctx, identity, now)
	if err != nil {
		return nil, err
	}
	if blocked {
		deps.MetricInc(deps.Metrics.LoginBlocked)
		deps.EmitAudit(ctx, deps.Events.LoginBlocked, identity, false, deps.Errors.Blocked)
		return &LoginResult{Outcome: OutcomeBlocked}, nil
	}

	cred, err := deps.GetCredential(ctx, identity)
	if err != nil {
		if deps.IsNotFound(err) {
			// Burn a hash round so an unknown identity is not cheaper to
			// probe than a wrong password.
			deps.DummyVerifyPassword(password)
			deps.MetricInc(deps.Metrics.LoginFailure)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, identity, false, deps.Errors.InvalidCredentials)
			return &LoginResult{Outcome: OutcomeInvalid}, nil
		}
		return nil, err
	}

	passwordOK, err := deps.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		// A stored hash that fails to parse is corrupt engine state, not a
		// login failure.
		return nil, err
	}

	totpOK, err := deps.VerifyTOTP(cred.Secret, code, now)
	if err != nil {
		return nil, err
	}

	// Second factor is TOTP OR backup code, short-circuited: consumption is
	// destructive, so the vault is only consulted when TOTP did not match.
	usedBackup := false
	if !totpOK {
		usedBackup, err = deps.ConsumeBackupCode(ctx, identity, deps.HashBackupCode(code))
		if err != nil {
			return nil, err
		}
	}

	if passwordOK && (totpOK || usedBackup) {
		if err := deps.RecordSuccess(ctx, identity); err != nil {
			return nil, err
		}

		result := &LoginResult{Outcome: OutcomeSuccess}
		if deps.IssueToken != nil {
			result.AccessToken, err = deps.IssueToken(identity, now)
			if err != nil {
				return nil, err
			}
		}

		if totpOK {
			deps.MetricInc(deps.Metrics.TOTPSuccess)
		} else {
			deps.MetricInc(deps.Metrics.BackupCodeUsed)
			deps.EmitAudit(ctx, deps.Events.BackupCodeUsed, identity, true, nil)
		}
		deps.MetricInc(deps.Metrics.LoginSuccess)
		deps.EmitAudit(ctx, deps.Events.LoginSuccess, identity, true, nil)
		return result, nil
	}

	if !totpOK {
		deps.MetricInc(deps.Metrics.TOTPFailure)
		if !usedBackup {
			deps.MetricInc(deps.Metrics.BackupCodeFailed)
		}
	}

	if err := deps.RecordFailure(ctx, identity, now); err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, identity, false, deps.Errors.InvalidCredentials)
	return &LoginResult{Outcome: OutcomeInvalid}, nil
}
