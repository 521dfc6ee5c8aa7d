package gatekit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/veilpost/gatekit/password"
	"github.com/veilpost/gatekit/ratelimit"
	"github.com/veilpost/gatekit/token"
)

// SessionCookieName carries the signed session token.
const SessionCookieName = "token"

// Config assembles the tuning parameters for every gateway component.
type Config struct {
	Token     TokenConfig
	Password  password.Config
	RateLimit RateLimitConfig
	CSRF      CSRFConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig covers session token issuance and the cookie that carries it.
type TokenConfig struct {
	Secret       []byte
	TTL          time.Duration
	Issuer       string
	Audience     string
	Leeway       time.Duration
	CookieSecure bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig covers every endpoint-class limiter the gateway runs.
type RateLimitConfig struct {
	Policies []ratelimit.Policy
	FailMode ratelimit.FailMode
	// Disabled bypasses every limiter. Explicit and logged, never a
	// fallthrough default.
	Disabled bool
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig covers the double-submit secret cookie.
type CSRFConfig struct {
	CookieMaxAge time.Duration
	CookieSecure bool
}

// DefaultConfig returns the production baseline: one-hour tokens, the
// standard per-scope throttle policies, fail-closed on store errors, audit
// and metrics enabled. The signing secret has no default and must be set.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: token.DefaultTTL,
		},
		Password: password.Config{
			Iterations: password.DefaultIterations,
			SaltLength: password.DefaultSaltLength,
		},
		RateLimit: RateLimitConfig{
			Policies: []ratelimit.Policy{
				ratelimit.AuthPolicy,
				ratelimit.APIPolicy,
				ratelimit.VotePolicy,
				ratelimit.CommentPolicy,
			},
			// Deliberate default: a brute-force window stays shut when the
			// store is down, at the cost of availability.
			FailMode: ratelimit.FailClosed,
		},
		CSRF: CSRFConfig{
			CookieMaxAge: time.Hour,
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

// FromEnv builds a [Config] from the environment on top of [DefaultConfig].
// A .env file in the working directory is honored when present.
//
// Recognized variables:
//
//	GATEKIT_SECRET             signing secret (required)
//	GATEKIT_TOKEN_TTL          e.g. "1h"
//	GATEKIT_TOKEN_ISSUER       iss pin
//	GATEKIT_TOKEN_AUDIENCE     aud pin
//	GATEKIT_COOKIE_SECURE      "true" in production
//	GATEKIT_PBKDF2_ITERATIONS  e.g. "150000"
//	GATEKIT_RATE_DISABLED      "true" bypasses throttling (logged)
//	GATEKIT_RATE_FAIL_MODE     "open" or "closed"
//	GATEKIT_RATE_<SCOPE>_WINDOW / _MAX   per-scope overrides, e.g.
//	                           GATEKIT_RATE_AUTH_WINDOW=15m GATEKIT_RATE_AUTH_MAX=5
func FromEnv() (Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	secret := os.Getenv("GATEKIT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("GATEKIT_SECRET is required")
	}
	cfg.Token.Secret = []byte(secret)

	var err error
	if cfg.Token.TTL, err = envDuration("GATEKIT_TOKEN_TTL", cfg.Token.TTL); err != nil {
		return Config{}, err
	}
	cfg.Token.Issuer = envString("GATEKIT_TOKEN_ISSUER", cfg.Token.Issuer)
	cfg.Token.Audience = envString("GATEKIT_TOKEN_AUDIENCE", cfg.Token.Audience)
	if cfg.Token.CookieSecure, err = envBool("GATEKIT_COOKIE_SECURE", cfg.Token.CookieSecure); err != nil {
		return Config{}, err
	}
	cfg.CSRF.CookieSecure = cfg.Token.CookieSecure

	if cfg.Password.Iterations, err = envInt("GATEKIT_PBKDF2_ITERATIONS", cfg.Password.Iterations); err != nil {
		return Config{}, err
	}

	if cfg.RateLimit.Disabled, err = envBool("GATEKIT_RATE_DISABLED", cfg.RateLimit.Disabled); err != nil {
		return Config{}, err
	}
	switch strings.ToLower(os.Getenv("GATEKIT_RATE_FAIL_MODE")) {
	case "":
	case "open":
		cfg.RateLimit.FailMode = ratelimit.FailOpen
	case "closed":
		cfg.RateLimit.FailMode = ratelimit.FailClosed
	default:
		return Config{}, fmt.Errorf("GATEKIT_RATE_FAIL_MODE must be \"open\" or \"closed\"")
	}

	for i := range cfg.RateLimit.Policies {
		p := &cfg.RateLimit.Policies[i]
		prefix := "GATEKIT_RATE_" + strings.ToUpper(string(p.Scope))
		if p.Window, err = envDuration(prefix+"_WINDOW", p.Window); err != nil {
			return Config{}, err
		}
		if p.MaxRequests, err = envInt(prefix+"_MAX", p.MaxRequests); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, v)
	}
	return d, nil
}
