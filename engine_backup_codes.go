package twofa

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/veilkey/twofa/internal"
	internalflows "github.com/veilkey/twofa/internal/flows"
)

// RegenerateBackupCodes discards the identity's remaining backup codes and
// returns a fresh plaintext set, shown exactly once. The caller must present
// the password and a current TOTP code; a backup code is not accepted as the
// second factor here. Failed attempts count against the lockout policy:
// [ErrInvalidCredentials] for a failed proof, [ErrTemporarilyBlocked] while
// the identity is blocked.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, identity, password, totpCode string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	unlock := e.locks.Lock(identity)
	defer unlock()

	codes, err := internalflows.RunRegenerateBackupCodes(ctx, identity, password, totpCode, e.regenerateFlowDeps())
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrTemporarilyBlocked) {
			e.logger.Warn("backup code regeneration aborted by backend fault",
				zap.String("identity", identity), zap.Error(err))
		}
		return nil, err
	}
	return codes, nil
}

func (e *Engine) regenerateFlowDeps() internalflows.RegenerateDeps {
	return internalflows.RegenerateDeps{
		BackupCodeCount:  e.config.BackupCodes.Count,
		BackupCodeLength: e.config.BackupCodes.Length,

		Now: e.clock.Now,

		IsBlocked:     e.limiter.IsBlocked,
		RecordFailure: e.limiter.RecordFailure,

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

		NewBackupCodes: func(count, length int) ([]string, error) {
			return internal.NewBackupCodes(count, length)
		},
		HashBackupCode:     internal.HashBackupCode,
		ReplaceBackupCodes: e.store.ReplaceBackupCodes,

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,

		Metrics: internalflows.RegenerateMetrics{
			Regenerated: int(MetricBackupCodesRegenerated),
		},
		Events: internalflows.RegenerateEvents{
			Regenerated: auditEventCodesRegenerated,
		},
		Errors: internalflows.RegenerateErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			Blocked:            ErrTemporarilyBlocked,
		},
	}
}
