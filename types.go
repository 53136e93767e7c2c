package twofa

import (
	"context"
	"time"
)

// Clock abstracts wall-clock time so lockout windows and TOTP verification
// can be driven deterministically in tests. Implementations must be safe for
// concurrent reads.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Credential is the stored record for a registered identity. The secret is
// immutable after registration; the backup code set only shrinks as codes are
// consumed. Backup codes are held as SHA-256 hashes — the plaintext codes
// exist only in the RegistrationResult returned once at registration time.
type Credential struct {
	Identity         string
	Secret           []byte
	PasswordHash     string
	BackupCodeHashes [][32]byte
}

// CredentialStore is the interface callers implement to back the engine with
// their own storage. Identities are exact-match, case-sensitive keys.
//
// ConsumeBackupCode must be atomic: two concurrent calls with the same valid
// code hash must not both return true. The shipped in-memory and Redis
// implementations satisfy this; custom implementations must as well.
//
// ReplaceBackupCodes swaps the identity's entire code hash set. Codes from
// the old set must not verify afterwards.
type CredentialStore interface {
	Create(ctx context.Context, cred Credential) error
	Get(ctx context.Context, identity string) (Credential, error)
	ConsumeBackupCode(ctx context.Context, identity string, codeHash [32]byte) (bool, error)
	ReplaceBackupCodes(ctx context.Context, identity string, codeHashes [][32]byte) error
}

// RegistrationResult carries the one-time provisioning material for a newly
// registered identity. The engine never re-exposes the secret or the backup
// codes after this result is returned.
type RegistrationResult struct {
	Identity        string
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// LoginOutcome classifies a login attempt. Credential failures are outcomes,
// not errors; Login returns a non-nil error only for engine or backend faults.
type LoginOutcome uint8

const (
	// OutcomeInvalidCredentials covers a wrong password, a wrong TOTP code,
	// and a wrong or already-consumed backup code. The causes are deliberately
	// indistinguishable.
	OutcomeInvalidCredentials LoginOutcome = iota
	// OutcomeSuccess means both the password and a second factor verified.
	OutcomeSuccess
	// OutcomeBlocked means the identity is under a lockout block. No
	// credential checks run and no failure is recorded while blocked.
	OutcomeBlocked
)

func (o LoginOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBlocked:
		return "blocked"
	default:
		return "invalid_credentials"
	}
}

// LoginResult is returned by [Engine.Login]. AccessToken is set only on
// OutcomeSuccess and only when token issuance is enabled in the config.
type LoginResult struct {
	Outcome     LoginOutcome
	AccessToken string
}
