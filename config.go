package twofa

import (
	"errors"
	"strings"
	"time"
)

// Config holds all start-time tuning for the engine. It is cloned by the
// Builder and treated as immutable after Build; none of these values are
// runtime-mutable state.
type Config struct {
	TOTP        TOTPConfig
	BackupCodes BackupCodeConfig
	Lockout     LockoutConfig
	Password    PasswordConfig
	Token       TokenConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig fixes the time-step code parameters. The defaults (30s period,
// 6 digits, SHA1, ±1 step skew) match common authenticator apps.
type TOTPConfig struct {
	Issuer    string
	Period    int
	Digits    int
	Skew      int
	Algorithm string // "SHA1" (default), "SHA256", "SHA512"
}

/*
====================================
BACKUP CODE CONFIG
====================================
*/

// BackupCodeConfig controls the single-use recovery code set issued at
// registration.
type BackupCodeConfig struct {
	Count  int
	Length int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-attempt policy. Window is the sliding
// interval during which failures accumulate; BlockDuration is how long a
// block lasts, measured from the window's start. The two are independent: an
// idle accumulating record resets on the next failure only once Window has
// elapsed, while a block holds until BlockDuration has elapsed from the
// window start regardless of later attempts.
type LockoutConfig struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
	RedisPrefix   string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters for stored password hashes.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls optional access-token issuance on successful login.
// Disabled by default; when disabled LoginResult.AccessToken stays empty.
type TokenConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the lock-free counter set.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration a plain New() Builder starts from.
// Callers tweak the copy and pass it back through [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		TOTP: TOTPConfig{
			Issuer:    "twofa",
			Period:    30,
			Digits:    6,
			Skew:      1,
			Algorithm: "SHA1",
		},
		BackupCodes: BackupCodeConfig{
			Count:  5,
			Length: 8,
		},
		Lockout: LockoutConfig{
			MaxAttempts:   3,
			Window:        5 * time.Minute,
			BlockDuration: 10 * time.Minute,
			RedisPrefix:   "tfa",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Token: TokenConfig{
			Enabled:       false,
			TTL:           15 * time.Minute,
			SigningMethod: "hs256",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = append([]byte(nil), cfg.Token.PrivateKey...)
	out.Token.PublicKey = append([]byte(nil), cfg.Token.PublicKey...)
	return out
}

// Validate checks the configuration for internally inconsistent or unsafe
// values. Build calls it; callers constructing a Config by hand can call it
// directly.
func (c Config) Validate() error {
	if c.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	if strings.TrimSpace(c.TOTP.Issuer) == "" {
		return errors.New("totp issuer required")
	}

	if c.BackupCodes.Count < 1 {
		return errors.New("backup code count must be at least 1")
	}
	if c.BackupCodes.Length < 6 {
		return errors.New("backup code length must be at least 6")
	}

	if c.Lockout.MaxAttempts < 1 {
		return errors.New("lockout max attempts must be at least 1")
	}
	if c.Lockout.Window <= 0 {
		return errors.New("lockout window must be positive")
	}
	if c.Lockout.BlockDuration <= 0 {
		return errors.New("lockout block duration must be positive")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("password memory cost below minimum (8 MB)")
	}
	if c.Password.Time < 1 {
		return errors.New("password time cost must be at least 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("password parallelism must be at least 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("password salt length below minimum (16)")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("password key length below minimum (16)")
	}

	if c.Token.Enabled {
		if c.Token.TTL <= 0 {
			return errors.New("token ttl must be positive when issuance is enabled")
		}
		switch strings.ToLower(c.Token.SigningMethod) {
		case "", "hs256", "ed25519":
		default:
			return errors.New("unsupported token signing method")
		}
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("token signing key required when issuance is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("audit buffer size must be at least 1")
	}

	return nil
}
