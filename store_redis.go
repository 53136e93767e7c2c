package twofa

import (
	"context"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	credFieldIdentity = "identity"
	credFieldSecret   = "secret"
	credFieldPassword = "password_hash"
)

// RedisStore keeps credentials in Redis: a hash per identity for the secret
// and password hash, plus a set of hex-encoded backup code hashes. SREM's
// atomicity gives the single-consumer guarantee for backup codes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed credential store with keys namespaced
// under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) credKey(identity string) string {
	return s.prefix + ":cred:" + identity
}

func (s *RedisStore) codesKey(identity string) string {
	return s.prefix + ":codes:" + identity
}

// Create implements CredentialStore. HSETNX on the identity field is the
// existence check and the claim in one step.
func (s *RedisStore) Create(ctx context.Context, cred Credential) error {
	claimed, err := s.client.HSetNX(ctx, s.credKey(cred.Identity), credFieldIdentity, cred.Identity).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !claimed {
		return ErrIdentityExists
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.credKey(cred.Identity),
		credFieldSecret, enc.EncodeToString(cred.Secret),
		credFieldPassword, cred.PasswordHash,
	)
	for _, h := range cred.BackupCodeHashes {
		pipe.SAdd(ctx, s.codesKey(cred.Identity), hex.EncodeToString(h[:]))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Get implements CredentialStore.
func (s *RedisStore) Get(ctx context.Context, identity string) (Credential, error) {
	fields, err := s.client.HGetAll(ctx, s.credKey(identity)).Result()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return Credential{}, ErrIdentityNotFound
	}

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	secret, err := enc.DecodeString(fields[credFieldSecret])
	if err != nil {
		return Credential{}, fmt.Errorf("corrupt credential for %q: %v", identity, err)
	}

	members, err := s.client.SMembers(ctx, s.codesKey(identity)).Result()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	hashes := make([][32]byte, 0, len(members))
	for _, m := range members {
		raw, err := hex.DecodeString(m)
		if err != nil || len(raw) != 32 {
			return Credential{}, fmt.Errorf("corrupt backup code hash for %q", identity)
		}
		var h [32]byte
		copy(h[:], raw)
		hashes = append(hashes, h)
	}

	return Credential{
		Identity:         identity,
		Secret:           secret,
		PasswordHash:     fields[credFieldPassword],
		BackupCodeHashes: hashes,
	}, nil
}

// ReplaceBackupCodes implements CredentialStore. The old set is deleted and
// the new one written in a single transaction.
func (s *RedisStore) ReplaceBackupCodes(ctx context.Context, identity string, codeHashes [][32]byte) error {
	exists, err := s.client.Exists(ctx, s.credKey(identity)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if exists == 0 {
		return ErrIdentityNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.codesKey(identity))
	for _, h := range codeHashes {
		pipe.SAdd(ctx, s.codesKey(identity), hex.EncodeToString(h[:]))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ConsumeBackupCode implements CredentialStore via a single SREM, which
// succeeds for exactly one of any set of concurrent callers.
func (s *RedisStore) ConsumeBackupCode(ctx context.Context, identity string, codeHash [32]byte) (bool, error) {
	removed, err := s.client.SRem(ctx, s.codesKey(identity), hex.EncodeToString(codeHash[:])).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return removed > 0, nil
}
