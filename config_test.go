package gatekit

import (
	"testing"
	"time"

	"github.com/veilpost/gatekit/ratelimit"
)

func TestDefaultConfigPolicies(t *testing.T) {
	cfg := DefaultConfig()

	want := map[ratelimit.Scope]ratelimit.Policy{
		ratelimit.ScopeAuth:    ratelimit.AuthPolicy,
		ratelimit.ScopeAPI:     ratelimit.APIPolicy,
		ratelimit.ScopeVote:    ratelimit.VotePolicy,
		ratelimit.ScopeComment: ratelimit.CommentPolicy,
	}
	if len(cfg.RateLimit.Policies) != len(want) {
		t.Fatalf("expected %d policies, got %d", len(want), len(cfg.RateLimit.Policies))
	}
	for _, p := range cfg.RateLimit.Policies {
		expected, ok := want[p.Scope]
		if !ok {
			t.Fatalf("unexpected scope %q", p.Scope)
		}
		if p != expected {
			t.Fatalf("policy for %q: got %+v, want %+v", p.Scope, p, expected)
		}
	}

	if cfg.RateLimit.FailMode != ratelimit.FailClosed {
		t.Fatal("default fail mode must be closed")
	}
	if cfg.Token.TTL != time.Hour {
		t.Fatalf("expected 1h default token TTL, got %v", cfg.Token.TTL)
	}
	if !cfg.Audit.Enabled || !cfg.Audit.DropIfFull {
		t.Fatalf("expected audit enabled with drop-if-full, got %+v", cfg.Audit)
	}
}

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("GATEKIT_SECRET", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when secret is missing")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("GATEKIT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GATEKIT_TOKEN_TTL", "30m")
	t.Setenv("GATEKIT_TOKEN_ISSUER", "veilpost")
	t.Setenv("GATEKIT_COOKIE_SECURE", "true")
	t.Setenv("GATEKIT_PBKDF2_ITERATIONS", "150000")
	t.Setenv("GATEKIT_RATE_FAIL_MODE", "open")
	t.Setenv("GATEKIT_RATE_AUTH_WINDOW", "5m")
	t.Setenv("GATEKIT_RATE_AUTH_MAX", "3")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if string(cfg.Token.Secret) != "0123456789abcdef0123456789abcdef" {
		t.Fatal("secret not loaded")
	}
	if cfg.Token.TTL != 30*time.Minute {
		t.Fatalf("expected 30m TTL, got %v", cfg.Token.TTL)
	}
	if cfg.Token.Issuer != "veilpost" {
		t.Fatalf("expected issuer override, got %q", cfg.Token.Issuer)
	}
	if !cfg.Token.CookieSecure || !cfg.CSRF.CookieSecure {
		t.Fatal("cookie security must apply to both session and CSRF cookies")
	}
	if cfg.Password.Iterations != 150000 {
		t.Fatalf("expected 150000 iterations, got %d", cfg.Password.Iterations)
	}
	if cfg.RateLimit.FailMode != ratelimit.FailOpen {
		t.Fatal("expected fail-open override")
	}

	for _, p := range cfg.RateLimit.Policies {
		if p.Scope != ratelimit.ScopeAuth {
			continue
		}
		if p.Window != 5*time.Minute || p.MaxRequests != 3 {
			t.Fatalf("auth policy override not applied: %+v", p)
		}
		return
	}
	t.Fatal("auth policy missing")
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"GATEKIT_TOKEN_TTL":         "soon",
		"GATEKIT_COOKIE_SECURE":     "yep",
		"GATEKIT_PBKDF2_ITERATIONS": "lots",
		"GATEKIT_RATE_FAIL_MODE":    "sideways",
		"GATEKIT_RATE_API_MAX":      "many",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("GATEKIT_SECRET", "0123456789abcdef0123456789abcdef")
			t.Setenv(key, value)

			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
