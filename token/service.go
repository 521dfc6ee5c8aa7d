package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretLength is the minimum signing secret size accepted for HS256.
	MinSecretLength = 32
	// DefaultTTL is applied when a token is issued without an explicit expiry.
	DefaultTTL = time.Hour
)

// Config holds token service tuning parameters.
type Config struct {
	Secret     []byte
	DefaultTTL time.Duration
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// Service signs and verifies session tokens with a single shared secret.
type Service struct {
	config Config
	now    func() time.Time
}

// Claims is the decoded payload of a verified token. Values carry the types
// produced by JSON decoding (numbers are float64).
type Claims map[string]any

// IssueOptions carries per-token overrides for Issue.
type IssueOptions struct {
	ExpiresIn time.Duration
	NotBefore time.Duration
	Issuer    string
	Audience  string
}

// New creates a token [Service]. The secret must be at least
// [MinSecretLength] bytes; a zero DefaultTTL falls back to [DefaultTTL].
func New(cfg Config) (*Service, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if cfg.DefaultTTL < 0 {
		return nil, errors.New("invalid default TTL configuration")
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Service{config: cfg, now: time.Now}, nil
}

// Issue signs the claim set and returns the serialized token.
//
// It stamps iat with the current time and always sets exp: either
// iat+opts.ExpiresIn, or iat+Config.DefaultTTL when ExpiresIn is zero. The
// caller-supplied claims are copied, never mutated. Identical claims issued
// at the same timestamp produce the same token string.
func (s *Service) Issue(claims Claims, opts IssueOptions) (string, error) {
	if opts.ExpiresIn < 0 || opts.NotBefore < 0 {
		return "", errors.New("negative issue option duration")
	}

	now := s.now()
	mc := make(jwt.MapClaims, len(claims)+4)
	for k, v := range claims {
		mc[k] = v
	}

	ttl := opts.ExpiresIn
	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}

	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()
	if opts.NotBefore > 0 {
		mc["nbf"] = now.Add(opts.NotBefore).Unix()
	}
	if iss := firstNonEmpty(opts.Issuer, s.config.Issuer); iss != "" {
		mc["iss"] = iss
	}
	if aud := firstNonEmpty(opts.Audience, s.config.Audience); aud != "" {
		mc["aud"] = aud
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return tok.SignedString(s.config.Secret)
}

// Verify parses and validates a token, returning its full claim set.
//
// The signature is checked with a constant-time comparison before any claim
// is inspected. Issuer and audience expectations apply only when configured.
// Every failure is one of the package sentinel errors.
func (s *Service) Verify(tokenStr string) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(s.config.Leeway))
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		options = append(options, jwt.WithAudience(s.config.Audience))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return s.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidFormat
	}

	return Claims(mc), nil
}

// classify maps golang-jwt validation errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrInvalidAudience
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrInvalidFormat
	default:
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
}

// Subject returns the sub claim, or an empty string when absent or not a string.
func (c Claims) Subject() string {
	sub, _ := c["sub"].(string)
	return sub
}

// IssuedAt returns the iat claim as a time, reporting whether it was present.
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.timeClaim("iat")
}

// ExpiresAt returns the exp claim as a time, reporting whether it was present.
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.timeClaim("exp")
}

func (c Claims) timeClaim(name string) (time.Time, bool) {
	switch v := c[name].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	default:
		return time.Time{}, false
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
