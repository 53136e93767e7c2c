package twofa

import (
	"context"
	"sync"
)

// MemoryStore is the default CredentialStore: a process-local map guarded by
// a RWMutex. Registrations are lost when the process exits; that is the
// documented default, not a defect to work around here.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

// Create implements CredentialStore. It never overwrites an existing record.
func (s *MemoryStore) Create(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creds[cred.Identity]; exists {
		return ErrIdentityExists
	}
	s.creds[cred.Identity] = cloneCredential(cred)
	return nil
}

// Get implements CredentialStore.
func (s *MemoryStore) Get(_ context.Context, identity string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[identity]
	if !ok {
		return Credential{}, ErrIdentityNotFound
	}
	return cloneCredential(cred), nil
}

// ConsumeBackupCode implements CredentialStore. Removal happens under the
// exclusive lock, so at most one concurrent caller can consume a given code.
func (s *MemoryStore) ConsumeBackupCode(_ context.Context, identity string, codeHash [32]byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[identity]
	if !ok {
		return false, nil
	}

	for i, h := range cred.BackupCodeHashes {
		if h == codeHash {
			cred.BackupCodeHashes = append(cred.BackupCodeHashes[:i], cred.BackupCodeHashes[i+1:]...)
			s.creds[identity] = cred
			return true, nil
		}
	}
	return false, nil
}

// ReplaceBackupCodes implements CredentialStore.
func (s *MemoryStore) ReplaceBackupCodes(_ context.Context, identity string, codeHashes [][32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[identity]
	if !ok {
		return ErrIdentityNotFound
	}
	cred.BackupCodeHashes = append([][32]byte(nil), codeHashes...)
	s.creds[identity] = cred
	return nil
}

// cloneCredential keeps callers from mutating stored state through shared
// slices.
func cloneCredential(cred Credential) Credential {
	out := cred
	out.Secret = append([]byte(nil), cred.Secret...)
	out.BackupCodeHashes = append([][32]byte(nil), cred.BackupCodeHashes...)
	return out
}
