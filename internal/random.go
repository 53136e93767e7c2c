package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"strings"
)

// BackupCodeAlphabet excludes visually ambiguous characters (I, O, 0, 1).
const BackupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBackupCodes generates count distinct codes of the given length from
// BackupCodeAlphabet using a cryptographically secure source. Uniqueness is
// required within the returned set only.
func NewBackupCodes(count, length int) ([]string, error) {
	if count < 1 || length < 1 {
		return nil, errors.New("invalid backup code parameters")
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	alphabetSize := big.NewInt(int64(len(BackupCodeAlphabet)))

	for len(codes) < count {
		var b strings.Builder
		b.Grow(length)
		for i := 0; i < length; i++ {
			n, err := rand.Int(rand.Reader, alphabetSize)
			if err != nil {
				return nil, err
			}
			b.WriteByte(BackupCodeAlphabet[n.Int64()])
		}
		code := b.String()
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes, nil
}

// HashBackupCode maps a user-supplied code to its stored form. Codes are
// normalized (trimmed, upper-cased) before hashing so transcription case
// never matters; stores keep only these hashes.
func HashBackupCode(code string) [32]byte {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	return sha256.Sum256([]byte(normalized))
}
