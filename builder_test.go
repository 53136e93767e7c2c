package twofa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veilkey/twofa/internal/lockout"
)

func TestBuildWithDefaults(t *testing.T) {
	engine, err := New().WithConfig(testEngineConfig()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, ok := engine.store.(*MemoryStore); !ok {
		t.Fatalf("default store is %T, want *MemoryStore", engine.store)
	}
	if _, ok := engine.limiter.(*lockout.Memory); !ok {
		t.Fatalf("default limiter is %T, want *lockout.Memory", engine.limiter)
	}
	if engine.tokens != nil {
		t.Fatal("token manager built despite issuance being disabled")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.TOTP.Digits = 0

	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected invalid config rejected")
	}
}

func TestBuildIsSingleUse(t *testing.T) {
	b := New().WithConfig(testEngineConfig())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err != ErrBuilderUsed {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}
}

func TestBuildWithRedisWiresStoreAndLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, ok := engine.store.(*RedisStore); !ok {
		t.Fatalf("store is %T, want *RedisStore", engine.store)
	}
	if _, ok := engine.limiter.(*lockout.Redis); !ok {
		t.Fatalf("limiter is %T, want *lockout.Redis", engine.limiter)
	}
}

func TestBuildExplicitStoreOverridesRedisDefault(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	custom := NewMemoryStore()
	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(client).
		WithStore(custom).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	if engine.store != CredentialStore(custom) {
		t.Fatal("explicit store was replaced by the Redis default")
	}
	if _, ok := engine.limiter.(*lockout.Redis); !ok {
		t.Fatalf("limiter is %T, want *lockout.Redis", engine.limiter)
	}
}

func TestEngineSurfacesBackendFaults(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(client).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	mr.Close()

	if _, err := engine.Login(context.Background(), "a@x.com", "pw1", "000000"); !errors.Is(err, ErrLockoutUnavailable) {
		t.Fatalf("expected ErrLockoutUnavailable, got %v", err)
	}
	if _, err := engine.Register(context.Background(), "a@x.com", "pw1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// Full register/login cycle with both backends on Redis.
func TestEngineOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock(time.Unix(1700000000, 0))
	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(client).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	reg, secret := registerTestIdentity(t, engine, "a@x.com", "pw1")

	// TOTP path.
	result, err := engine.Login(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now()))
	if err != nil || result.Outcome != OutcomeSuccess {
		t.Fatalf("totp login: %v %v", result, err)
	}

	// Backup code path, single-use.
	result, err = engine.Login(context.Background(), "a@x.com", "pw1", reg.BackupCodes[0])
	if err != nil || result.Outcome != OutcomeSuccess {
		t.Fatalf("backup login: %v %v", result, err)
	}
	result, err = engine.Login(context.Background(), "a@x.com", "pw1", reg.BackupCodes[0])
	if err != nil || result.Outcome != OutcomeInvalidCredentials {
		t.Fatalf("backup reuse: %v %v", result, err)
	}

	// Lockout across the shared backend.
	for i := 0; i < 3; i++ {
		failLogin(t, engine, "a@x.com")
	}
	result, err = engine.Login(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now()))
	if err != nil || result.Outcome != OutcomeBlocked {
		t.Fatalf("blocked login: %v %v", result, err)
	}

	clock.Advance(10 * time.Minute)
	result, err = engine.Login(context.Background(), "a@x.com", "pw1", totpCodeAt(t, secret, clock.Now()))
	if err != nil || result.Outcome != OutcomeSuccess {
		t.Fatalf("post-block login: %v %v", result, err)
	}
}
