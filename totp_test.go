package twofa

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func defaultTOTPManager() *totpManager {
	return newTOTPManager(TOTPConfig{
		Issuer:    "twofa",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	})
}

func TestTOTPGenerateSecretIsBase32AndFresh(t *testing.T) {
	m := defaultTOTPManager()

	raw1, enc1, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	raw2, enc2, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	if len(raw1) != totpSecretBytes {
		t.Fatalf("expected %d secret bytes, got %d", totpSecretBytes, len(raw1))
	}
	if enc1 == enc2 || string(raw1) == string(raw2) {
		t.Fatal("expected distinct secrets across calls")
	}
	if strings.Contains(enc1, "=") {
		t.Fatalf("expected unpadded base32, got %q", enc1)
	}
}

func TestTOTPProvisionURIFormat(t *testing.T) {
	m := defaultTOTPManager()

	uri := m.ProvisionURI("JBSWY3DPEHPK3PXP", "a@x.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("expected otpauth uri, got %q", uri)
	}
	for _, want := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=twofa", "period=30", "digits=6", "algorithm=SHA1"} {
		if !strings.Contains(uri, want) {
			t.Fatalf("uri %q missing %q", uri, want)
		}
	}
}

func TestTOTPSkewWindowBoundaries(t *testing.T) {
	m := defaultTOTPManager()
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0)
	base := now.Unix() / 30

	for _, tc := range []struct {
		offset int64
		accept bool
	}{
		{-2, false},
		{-1, true},
		{0, true},
		{1, true},
		{2, false},
	} {
		code, err := hotpCode(secret, base+tc.offset, 6, "SHA1")
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("VerifyCode failed: %v", err)
		}
		if ok != tc.accept {
			t.Fatalf("offset %+d: accepted=%v, want %v", tc.offset, ok, tc.accept)
		}
	}
}

func TestTOTPRejectsMalformedCandidates(t *testing.T) {
	m := defaultTOTPManager()
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0)

	for _, code := range []string{"", "12345", "1234567", "12a456", "abcdef", "12345678"} {
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", code, err)
		}
		if ok {
			t.Fatalf("expected %q rejected", code)
		}
	}
}

func TestTOTPTrimsWhitespaceBeforeVerify(t *testing.T) {
	m := defaultTOTPManager()
	secret := []byte("12345678901234567890")
	now := time.Unix(1234567890, 0)

	code, err := hotpCode(secret, now.Unix()/30, 6, "SHA1")
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}

	ok, err := m.VerifyCode(secret, "  "+code+"\n", now)
	if err != nil || !ok {
		t.Fatalf("expected padded input accepted, ok=%v err=%v", ok, err)
	}
}

func TestTOTPEmptySecretIsAnError(t *testing.T) {
	m := defaultTOTPManager()
	if _, err := m.VerifyCode(nil, "123456", time.Now()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

// Cross-check against an independent RFC 6238 implementation: codes produced
// by pquerna/otp for our generated secrets must verify here.
func TestTOTPAgreesWithIndependentImplementation(t *testing.T) {
	m := defaultTOTPManager()

	raw, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}

	for _, ts := range []int64{59, 1111111111, 1234567890, 2000000000} {
		at := time.Unix(ts, 0)
		code, err := totp.GenerateCode(encoded, at)
		if err != nil {
			t.Fatalf("reference GenerateCode failed: %v", err)
		}
		ok, err := m.VerifyCode(raw, code, at)
		if err != nil || !ok {
			t.Fatalf("reference code %q at t=%d not accepted, ok=%v err=%v", code, ts, ok, err)
		}
	}
}
