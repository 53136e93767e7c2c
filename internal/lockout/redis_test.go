package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "tfa", testConfig())
}

func TestRedisStateMachine(t *testing.T) {
	l := newRedisLimiter(t)
	t0 := time.Now().Truncate(time.Second)

	mustNotBlocked(t, l, "a@x.com", t0)

	recordFailure(t, l, "a@x.com", t0)
	recordFailure(t, l, "a@x.com", t0.Add(time.Second))
	mustNotBlocked(t, l, "a@x.com", t0.Add(2*time.Second))

	recordFailure(t, l, "a@x.com", t0.Add(2*time.Second))
	mustBlocked(t, l, "a@x.com", t0.Add(3*time.Second))

	// Block runs from the window start.
	mustBlocked(t, l, "a@x.com", t0.Add(10*time.Minute-time.Second))
	mustNotBlocked(t, l, "a@x.com", t0.Add(10*time.Minute))
}

func TestRedisSuccessDeletesRecord(t *testing.T) {
	l := newRedisLimiter(t)
	t0 := time.Now().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		recordFailure(t, l, "a@x.com", t0)
	}
	mustBlocked(t, l, "a@x.com", t0.Add(time.Second))

	if err := l.RecordSuccess(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}
	mustNotBlocked(t, l, "a@x.com", t0.Add(time.Second))
}

func TestRedisWindowExpiryResetsCount(t *testing.T) {
	l := newRedisLimiter(t)
	t0 := time.Now().Truncate(time.Second)

	recordFailure(t, l, "a@x.com", t0)
	recordFailure(t, l, "a@x.com", t0)

	t1 := t0.Add(5*time.Minute + time.Second)
	recordFailure(t, l, "a@x.com", t1)
	recordFailure(t, l, "a@x.com", t1)
	mustNotBlocked(t, l, "a@x.com", t1.Add(time.Second))
}

func TestRedisCorruptRecordSurfacesError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedis(client, "tfa", testConfig())

	mr.HSet("tfa:lockout:a@x.com", fieldAttempts, "not-a-number")
	mr.HSet("tfa:lockout:a@x.com", fieldWindowStart, "12345")

	if _, err := l.IsBlocked(context.Background(), "a@x.com", time.Now()); err == nil {
		t.Fatal("expected error for corrupt record")
	}
}

func TestRedisUnavailableBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedis(client, "tfa", testConfig())

	mr.Close()

	if _, err := l.IsBlocked(context.Background(), "a@x.com", time.Now()); err == nil {
		t.Fatal("expected error when backend is down")
	}
	if err := l.RecordFailure(context.Background(), "a@x.com", time.Now()); err == nil {
		t.Fatal("expected error when backend is down")
	}
}
