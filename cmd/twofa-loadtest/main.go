// Command twofa-loadtest exercises the engine's login path under concurrency
// and reports latency percentiles and outcome counts. With no -redis-addr it
// runs against miniredis, so a laptop run needs no external services.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"

	twofa "github.com/veilkey/twofa"
)

func main() {
	var (
		users       = flag.Int("users", 1000, "number of identities to register")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "total login operations")
		wrongPct    = flag.Int("wrong-pct", 20, "percent of attempts using a wrong password")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *wrongPct < 0 || *wrongPct > 100 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0; wrong-pct in [0,100]")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	var client redis.UniversalClient
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := twofa.DefaultConfig()
	// Load tests hammer a small identity pool with deliberate failures; a
	// production lockout policy would block the whole pool immediately.
	cfg.Lockout.MaxAttempts = 1 << 30
	cfg.Audit.Enabled = false

	engine, err := twofa.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("registering %d identities...\n", *users)
	secrets := make([]string, *users)
	startSeed := time.Now()
	for i := 0; i < *users; i++ {
		result, err := engine.Register(ctx, identityFor(i), passwordFor(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
			os.Exit(1)
		}
		secrets[i] = result.Secret
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	var (
		opIndex   atomic.Int64
		successes atomic.Int64
		invalids  atomic.Int64
		faults    atomic.Int64
		wg        sync.WaitGroup
	)
	latencies := make([]time.Duration, *ops)

	fmt.Printf("running %d logins across %d workers...\n", *ops, *concurrency)
	startRun := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			for {
				n := opIndex.Add(1) - 1
				if n >= int64(*ops) {
					return
				}

				i := rng.Intn(*users)
				pass := passwordFor(i)
				if rng.Intn(100) < *wrongPct {
					pass = "definitely-wrong"
				}
				code, err := totp.GenerateCode(secrets[i], time.Now())
				if err != nil {
					faults.Add(1)
					continue
				}

				begin := time.Now()
				result, err := engine.Login(ctx, identityFor(i), pass, code)
				latencies[n] = time.Since(begin)
				switch {
				case err != nil:
					faults.Add(1)
				case result.Outcome == twofa.OutcomeSuccess:
					successes.Add(1)
				default:
					invalids.Add(1)
				}
			}
		}(int64(w) + 1)
	}
	wg.Wait()
	elapsed := time.Since(startRun)

	sort.Slice(latencies, func(a, b int) bool { return latencies[a] < latencies[b] })
	pct := func(p float64) time.Duration {
		idx := int(float64(len(latencies)-1) * p)
		return latencies[idx]
	}

	fmt.Printf("done in %s (%.0f logins/s)\n", elapsed.Round(time.Millisecond),
		float64(*ops)/elapsed.Seconds())
	fmt.Printf("outcomes: %d success, %d invalid, %d faults\n",
		successes.Load(), invalids.Load(), faults.Load())
	fmt.Printf("latency: p50=%s p95=%s p99=%s max=%s\n",
		pct(0.50), pct(0.95), pct(0.99), latencies[len(latencies)-1])

	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: login_success=%d login_failure=%d totp_success=%d totp_failure=%d\n",
		snap.Counters[twofa.MetricLoginSuccess],
		snap.Counters[twofa.MetricLoginFailure],
		snap.Counters[twofa.MetricTOTPSuccess],
		snap.Counters[twofa.MetricTOTPFailure])
}

func identityFor(i int) string {
	return fmt.Sprintf("user-%d@load.test", i)
}

func passwordFor(i int) string {
	return fmt.Sprintf("password-%d", i)
}
