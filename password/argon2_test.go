package password

import (
	"strings"
	"testing"
)

func lightConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(lightConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestNewHasherRejectsWeakParameters(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"low memory", func(c *Config) { c.Memory = 1024 }},
		{"zero time", func(c *Config) { c.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.SaltLength = 8 }},
		{"short key", func(c *Config) { c.KeyLength = 8 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := lightConfig()
			tc.mutate(&cfg)
			if _, err := NewHasher(cfg); err == nil {
				t.Fatal("expected configuration rejected")
			}
		})
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"pw1", "correct horse battery staple", "", "pässwörd ✓"} {
		encoded, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) failed: %v", pw, err)
		}
		if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
			t.Fatalf("unexpected PHC prefix: %q", encoded)
		}

		ok, err := h.Verify(pw, encoded)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if !ok {
			t.Fatalf("correct password %q rejected", pw)
		}

		ok, err = h.Verify(pw+"x", encoded)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if ok {
			t.Fatalf("wrong password accepted for %q", pw)
		}
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("identical hashes for the same password imply salt reuse")
	}
}

func TestVerifyReadsParametersFromHash(t *testing.T) {
	// A hash created under one cost config must verify under another: the
	// parameters live in the PHC string.
	strong, err := NewHasher(Config{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	encoded, err := strong.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	light := newTestHasher(t)
	ok, err := light.Verify("pw1", encoded)
	if err != nil || !ok {
		t.Fatalf("cross-config verify failed, ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHashIsAnError(t *testing.T) {
	h := newTestHasher(t)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$",
	} {
		if _, err := h.Verify("pw1", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}

func TestDummyVerifyDoesNotPanic(t *testing.T) {
	newTestHasher(t).DummyVerify("anything")
}
