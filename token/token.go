package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Method selects the JWT signing algorithm.
type Method string

const (
	// MethodHS256 signs with an HMAC-SHA256 shared secret.
	MethodHS256 Method = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 Method = "ed25519"
)

// Config holds signing material and token lifetime.
type Config struct {
	TTL        time.Duration
	Method     Method
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
}

// Claims is the token payload: the authenticated identity in the subject,
// plus a marker that a second factor was verified.
type Claims struct {
	TwoFactor bool `json:"tfa"`
	jwt.RegisteredClaims
}

// Manager issues and verifies access tokens. Safe for concurrent use after
// construction.
type Manager struct {
	config Config
	edPriv ed25519.PrivateKey
	edPub  ed25519.PublicKey
}

// NewManager validates the configuration and key material.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}

	m := &Manager{config: cfg}
	switch normalizeMethod(cfg.Method) {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires a signing key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) != ed25519.SeedSize && len(cfg.PrivateKey) != ed25519.PrivateKeySize {
			return nil, errors.New("ed25519 requires a seed or private key")
		}
		if len(cfg.PrivateKey) == ed25519.SeedSize {
			m.edPriv = ed25519.NewKeyFromSeed(cfg.PrivateKey)
		} else {
			m.edPriv = ed25519.PrivateKey(cfg.PrivateKey)
		}
		if len(cfg.PublicKey) > 0 {
			if len(cfg.PublicKey) != ed25519.PublicKeySize {
				return nil, errors.New("invalid ed25519 public key size")
			}
			m.edPub = ed25519.PublicKey(cfg.PublicKey)
		} else {
			m.edPub = m.edPriv.Public().(ed25519.PublicKey)
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Method)
	}

	return m, nil
}

func normalizeMethod(m Method) Method {
	switch Method(strings.ToLower(string(m))) {
	case "", MethodHS256:
		return MethodHS256
	case MethodEd25519:
		return MethodEd25519
	default:
		return m
	}
}

func (m *Manager) signingMethod() jwt.SigningMethod {
	if normalizeMethod(m.config.Method) == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (m *Manager) signKey() any {
	if normalizeMethod(m.config.Method) == MethodEd25519 {
		return m.edPriv
	}
	return m.config.PrivateKey
}

func (m *Manager) verifyKey() any {
	if normalizeMethod(m.config.Method) == MethodEd25519 {
		return m.edPub
	}
	return m.config.PrivateKey
}

// Issue signs a token for identity, anchored at now from the engine's clock.
func (m *Manager) Issue(identity string, now time.Time) (string, error) {
	if m == nil {
		return "", errors.New("token manager not initialized")
	}

	claims := Claims{
		TwoFactor: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	return jwt.NewWithClaims(m.signingMethod(), claims).SignedString(m.signKey())
}

// Verify parses and validates a token, returning its claims.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("token manager not initialized")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.signingMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return m.verifyKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
