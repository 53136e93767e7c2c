package twofa

import (
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veilkey/twofa/internal"
	"github.com/veilkey/twofa/internal/lockout"
	"github.com/veilkey/twofa/password"
	"github.com/veilkey/twofa/token"
)

// Builder assembles an Engine. Zero or more With* calls, then Build exactly
// once. Construction is allocation-only; no I/O happens until Engine methods
// are called.
type Builder struct {
	config    Config
	store     CredentialStore
	limiter   lockout.Limiter
	redis     redis.UniversalClient
	clock     Clock
	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration: 30s/6-digit
// SHA1 TOTP with ±1 step skew, 5 backup codes of 8 characters, and a lockout
// of 3 attempts per 5-minute window with a 10-minute block.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore supplies a custom CredentialStore. Without it, Build uses the
// in-memory store (or the Redis store when WithRedis is set).
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithLockout supplies a custom lockout limiter implementation.
func (b *Builder) WithLockout(limiter lockout.Limiter) *Builder {
	b.limiter = limiter
	return b
}

// WithRedis backs both the credential store and the lockout limiter with
// Redis, unless a more specific WithStore/WithLockout overrides one of them.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock injects a clock. Tests use this to drive lockout windows and
// TOTP steps deterministically.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	var tokens *token.Manager
	if cfg.Token.Enabled {
		tokens, err = token.NewManager(token.Config{
			TTL:        cfg.Token.TTL,
			Method:     token.Method(strings.ToLower(cfg.Token.SigningMethod)),
			PrivateKey: cfg.Token.PrivateKey,
			PublicKey:  cfg.Token.PublicKey,
			Issuer:     cfg.Token.Issuer,
		})
		if err != nil {
			return nil, err
		}
	}

	lockoutCfg := lockout.Config{
		MaxAttempts:   cfg.Lockout.MaxAttempts,
		Window:        cfg.Lockout.Window,
		BlockDuration: cfg.Lockout.BlockDuration,
	}

	store := b.store
	limiter := b.limiter
	if b.redis != nil {
		if store == nil {
			store = NewRedisStore(b.redis, cfg.Lockout.RedisPrefix)
		}
		if limiter == nil {
			limiter = lockout.NewRedis(b.redis, cfg.Lockout.RedisPrefix, lockoutCfg)
		}
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if limiter == nil {
		limiter = lockout.NewMemory(lockoutCfg)
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:       cfg,
		store:        store,
		limiter:      limiter,
		totp:         newTOTPManager(cfg.TOTP),
		passwordHash: hasher,
		tokens:       tokens,
		clock:        clock,
		locks:        &internal.KeyedMutex{},
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
	}

	b.built = true
	return engine, nil
}
