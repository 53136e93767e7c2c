package flows

import "context"

// CredentialRecord is the flow-local credential shape handed to the store.
type CredentialRecord struct {
	Identity         string
	Secret           []byte
	PasswordHash     string
	BackupCodeHashes [][32]byte
}

// RegisterResult carries the one-time provisioning material.
type RegisterResult struct {
	Identity        string
	SecretBase32    string
	ProvisioningURI string
	BackupCodes     []string
}

// RegisterMetrics carries metric IDs used by the registration flow.
type RegisterMetrics struct {
	RegisterSuccess   int
	RegisterDuplicate int
}

// RegisterEvents carries audit event names used by the registration flow.
type RegisterEvents struct {
	RegisterSuccess   string
	RegisterDuplicate string
}

// RegisterErrors carries host-level sentinel errors used by the registration
// flow.
type RegisterErrors struct {
	EngineNotReady  error
	IdentityInvalid error
	IdentityExists  error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	BackupCodeCount  int
	BackupCodeLength int

	HashPassword     func(password string) (string, error)
	NewSecret        func() (raw []byte, base32 string, err error)
	ProvisionURI     func(secretBase32, identity string) string
	NewBackupCodes   func(count, length int) ([]string, error)
	HashBackupCode   func(code string) [32]byte
	CreateCredential func(ctx context.Context, cred CredentialRecord) error
	IsDuplicate      func(error) bool

	MetricInc func(int)
	EmitAudit func(ctx context.Context, eventType, identity string, success bool, failure error)

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, string, bool, error) {}
	}
	if deps.IsDuplicate == nil {
		deps.IsDuplicate = func(error) bool { return false }
	}
}

// RunRegister provisions a secret and backup codes for a new identity and
// stores the credential. The returned result is the only time the secret and
// plaintext codes are exposed.
func RunRegister(ctx context.Context, identity, password string, deps RegisterDeps) (*RegisterResult, error) {
	normalizeRegisterDeps(&deps)

	if deps.HashPassword == nil || deps.NewSecret == nil || deps.NewBackupCodes == nil ||
		deps.HashBackupCode == nil || deps.CreateCredential == nil || deps.ProvisionURI == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if identity == "" {
		return nil, deps.Errors.IdentityInvalid
	}

	passwordHash, err := deps.HashPassword(password)
	if err != nil {
		return nil, err
	}

	secret, secretBase32, err := deps.NewSecret()
	if err != nil {
		return nil, err
	}

	codes, err := deps.NewBackupCodes(deps.BackupCodeCount, deps.BackupCodeLength)
	if err != nil {
		return nil, err
	}

	hashes := make([][32]byte, len(codes))
	for i, code := range codes {
		hashes[i] = deps.HashBackupCode(code)
	}

	err = deps.CreateCredential(ctx, CredentialRecord{
		Identity:         identity,
		Secret:           secret,
		PasswordHash:     passwordHash,
		BackupCodeHashes: hashes,
	})
	if err != nil {
		if deps.IsDuplicate(err) {
			deps.MetricInc(deps.Metrics.RegisterDuplicate)
			deps.EmitAudit(ctx, deps.Events.RegisterDuplicate, identity, false, deps.Errors.IdentityExists)
			return nil, deps.Errors.IdentityExists
		}
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, identity, true, nil)

	return &RegisterResult{
		Identity:        identity,
		SecretBase32:    secretBase32,
		ProvisioningURI: deps.ProvisionURI(secretBase32, identity),
		BackupCodes:     codes,
	}, nil
}
