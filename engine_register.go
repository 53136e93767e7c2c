package twofa

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/veilkey/twofa/internal"
	internalflows "github.com/veilkey/twofa/internal/flows"
)

// ErrIdentityInvalid is returned by Register for an empty identity.
var ErrIdentityInvalid = errors.New("invalid identity")

// Register provisions a fresh TOTP secret and backup code set for identity
// and stores the credential. The returned result is the caller's only chance
// to display the secret, provisioning URI, and plaintext backup codes.
//
// A duplicate identity returns [ErrIdentityExists] and never mutates the
// existing credential.
func (e *Engine) Register(ctx context.Context, identity, password string) (*RegistrationResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	unlock := e.locks.Lock(identity)
	defer unlock()

	result, err := internalflows.RunRegister(ctx, identity, password, e.registerFlowDeps())
	if err != nil {
		if !errors.Is(err, ErrIdentityExists) && !errors.Is(err, ErrIdentityInvalid) {
			e.logger.Warn("registration aborted by backend fault",
				zap.String("identity", identity), zap.Error(err))
		}
		return nil, err
	}

	return &RegistrationResult{
		Identity:        result.Identity,
		Secret:          result.SecretBase32,
		ProvisioningURI: result.ProvisioningURI,
		BackupCodes:     result.BackupCodes,
	}, nil
}

func (e *Engine) registerFlowDeps() internalflows.RegisterDeps {
	return internalflows.RegisterDeps{
		BackupCodeCount:  e.config.BackupCodes.Count,
		BackupCodeLength: e.config.BackupCodes.Length,

		HashPassword: e.passwordHash.Hash,
		NewSecret:    e.totp.GenerateSecret,
		ProvisionURI: e.totp.ProvisionURI,
		NewBackupCodes: func(count, length int) ([]string, error) {
			return internal.NewBackupCodes(count, length)
		},
		HashBackupCode: internal.HashBackupCode,
		CreateCredential: func(ctx context.Context, rec internalflows.CredentialRecord) error {
			return e.store.Create(ctx, Credential{
				Identity:         rec.Identity,
				Secret:           rec.Secret,
				PasswordHash:     rec.PasswordHash,
				BackupCodeHashes: rec.BackupCodeHashes,
			})
		},
		IsDuplicate: func(err error) bool {
			return errors.Is(err, ErrIdentityExists)
		},

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,

		Metrics: internalflows.RegisterMetrics{
			RegisterSuccess:   int(MetricRegisterSuccess),
			RegisterDuplicate: int(MetricRegisterDuplicate),
		},
		Events: internalflows.RegisterEvents{
			RegisterSuccess:   auditEventRegisterSuccess,
			RegisterDuplicate: auditEventRegisterDuplicate,
		},
		Errors: internalflows.RegisterErrors{
			EngineNotReady:  ErrEngineNotReady,
			IdentityInvalid: ErrIdentityInvalid,
			IdentityExists:  ErrIdentityExists,
		},
	}
}
