package twofa

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/veilkey/twofa/internal"
	internalflows "github.com/veilkey/twofa/internal/flows"
)

// Login verifies identity, password, and a second factor (TOTP code or
// single-use backup code) and returns the outcome. Credential failures are
// reported through LoginResult.Outcome; a non-nil error means an engine or
// backend fault, not a rejected login.
//
// Wrong passwords, wrong TOTP codes, unknown identities, and consumed backup
// codes all yield OutcomeInvalidCredentials, deliberately undifferentiated.
func (e *Engine) Login(ctx context.Context, identity, password, code string) (*LoginResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	unlock := e.locks.Lock(identity)
	defer unlock()

	result, err := internalflows.RunLogin(ctx, identity, password, code, e.loginFlowDeps())
	if err != nil {
		e.logger.Warn("login aborted by backend fault",
			zap.String("identity", identity), zap.Error(err))
		return nil, err
	}

	out := &LoginResult{AccessToken: result.AccessToken}
	switch result.Outcome {
	case internalflows.OutcomeSuccess:
		out.Outcome = OutcomeSuccess
	case internalflows.OutcomeBlocked:
		out.Outcome = OutcomeBlocked
	default:
		out.Outcome = OutcomeInvalidCredentials
	}
	return out, nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	deps := internalflows.LoginDeps{
		Now: e.clock.Now,

		IsBlocked:     e.limiter.IsBlocked,
		RecordFailure: e.limiter.RecordFailure,
		RecordSuccess: e.limiter.RecordSuccess,

		GetCredential: func(ctx context.Context, identity string) (internalflows.CredentialRecord, error) {
			cred, err := e.store.Get(ctx, identity)
			if err != nil {
				return internalflows.CredentialRecord{}, err
			}
			return internalflows.CredentialRecord{
				Identity:     cred.Identity,
				Secret:       cred.Secret,
				PasswordHash: cred.PasswordHash,
			}, nil
		},
		IsNotFound: func(err error) bool {
			return errors.Is(err, ErrIdentityNotFound)
		},

		VerifyPassword: func(hash, password string) (bool, error) {
			return e.passwordHash.Verify(password, hash)
		},
		DummyVerifyPassword: e.passwordHash.DummyVerify,
		VerifyTOTP:          e.totp.VerifyCode,
		HashBackupCode:      internal.HashBackupCode,
		ConsumeBackupCode:   e.store.ConsumeBackupCode,

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,

		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginBlocked:     int(MetricLoginBlocked),
			TOTPSuccess:      int(MetricTOTPSuccess),
			TOTPFailure:      int(MetricTOTPFailure),
			BackupCodeUsed:   int(MetricBackupCodeUsed),
			BackupCodeFailed: int(MetricBackupCodeFailed),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:   auditEventLoginSuccess,
			LoginFailure:   auditEventLoginFailure,
			LoginBlocked:   auditEventLoginBlocked,
			BackupCodeUsed: auditEventBackupCodeUsed,
		},
		// Flow failures become outcomes, never surfaced errors; the
		// sentinels here only provide the reason text on audit events.
		Errors: internalflows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			Blocked:            ErrTemporarilyBlocked,
		},
	}

	if e.tokens != nil {
		deps.IssueToken = func(identity string, now time.Time) (string, error) {
			return e.tokens.Issue(identity, now)
		}
	}

	return deps
}
