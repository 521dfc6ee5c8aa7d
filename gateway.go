package gatekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/veilpost/gatekit/csrf"
	"github.com/veilpost/gatekit/kv"
	"github.com/veilpost/gatekit/password"
	"github.com/veilpost/gatekit/ratelimit"
	"github.com/veilpost/gatekit/token"
)

// Identity is the authenticated principal resolved from a session cookie.
type Identity struct {
	Subject   string
	Claims    token.Claims
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Gateway composes the security core: token verification, credential
// hashing, per-scope throttling, and CSRF validation, with audit and metrics
// on every decision.
type Gateway struct {
	config    Config
	tokens    *token.Service
	passwords *password.Hasher
	guard     *csrf.Guard
	limiters  map[ratelimit.Scope]*ratelimit.Limiter
	audit     *auditDispatcher
	metrics   *Metrics
	logger    *slog.Logger
}

// Option customizes gateway construction.
type Option func(*gatewayOptions)

type gatewayOptions struct {
	logger *slog.Logger
	sink   AuditSink
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *gatewayOptions) { o.logger = logger }
}

// WithAuditSink sets the destination for audit events. Defaults to a
// [SlogSink] over the gateway logger.
func WithAuditSink(sink AuditSink) Option {
	return func(o *gatewayOptions) { o.sink = sink }
}

// New assembles a [Gateway]. The store backs the rate limiters only; every
// other component is stateless.
func New(cfg Config, store kv.Store, opts ...Option) (*Gateway, error) {
	var options gatewayOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.sink == nil {
		options.sink = NewSlogSink(options.logger)
	}

	tokens, err := token.New(token.Config{
		Secret:     cfg.Token.Secret,
		DefaultTTL: cfg.Token.TTL,
		Issuer:     cfg.Token.Issuer,
		Audience:   cfg.Token.Audience,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	passwords, err := password.New(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	limiters := make(map[ratelimit.Scope]*ratelimit.Limiter, len(cfg.RateLimit.Policies))
	for _, policy := range cfg.RateLimit.Policies {
		limiter, err := ratelimit.New(store, ratelimit.Config{
			Policy:   policy,
			FailMode: cfg.RateLimit.FailMode,
			Disabled: cfg.RateLimit.Disabled,
		}, options.logger)
		if err != nil {
			return nil, fmt.Errorf("rate limiter %q: %w", policy.Scope, err)
		}
		limiters[policy.Scope] = limiter
	}

	return &Gateway{
		config: cfg,
		tokens: tokens,
		passwords: passwords,
		guard: csrf.New(csrf.Config{
			CookieSecure: cfg.CSRF.CookieSecure,
			MaxAge:       cfg.CSRF.CookieMaxAge,
		}),
		limiters: limiters,
		audit:    newAuditDispatcher(cfg.Audit, options.sink),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   options.logger,
	}, nil
}

// Close flushes the audit pipeline.
func (g *Gateway) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

// Authenticate resolves the request's identity from the session cookie.
//
// An absent cookie is anonymous: (nil, nil). A present but unverifiable
// token returns the token package's named error so callers can distinguish
// "session expired" from "forged" in responses and audit trails.
func (g *Gateway) Authenticate(r *http.Request) (*Identity, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	claims, err := g.tokens.Verify(cookie.Value)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			g.metrics.Inc(MetricAuthExpired)
		} else {
			g.metrics.Inc(MetricAuthInvalid)
		}
		g.audit.Emit(r.Context(), AuditEvent{
			EventType: EventAuthFailure,
			IP:        ClientIP(r),
			Error:     err.Error(),
		})
		return nil, err
	}

	g.metrics.Inc(MetricAuthSuccess)

	identity := &Identity{Subject: claims.Subject(), Claims: claims}
	if iat, ok := claims.IssuedAt(); ok {
		identity.IssuedAt = iat
	}
	if exp, ok := claims.ExpiresAt(); ok {
		identity.ExpiresAt = exp
	}
	return identity, nil
}

// IssueSession signs a token for the claim set and sets it as the session
// cookie. The cookie lifetime follows the token expiry.
func (g *Gateway) IssueSession(w http.ResponseWriter, r *http.Request, claims token.Claims, opts token.IssueOptions) (string, error) {
	if g == nil {
		return "", ErrGatewayNotReady
	}

	signed, err := g.tokens.Issue(claims, opts)
	if err != nil {
		return "", err
	}

	ttl := opts.ExpiresIn
	if ttl == 0 {
		ttl = g.config.Token.TTL
		if ttl == 0 {
			ttl = token.DefaultTTL
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   g.config.Token.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	g.metrics.Inc(MetricSessionIssued)
	g.audit.Emit(r.Context(), AuditEvent{
		EventType: EventSessionIssued,
		Subject:   claims.Subject(),
		IP:        ClientIP(r),
		Success:   true,
	})
	return signed, nil
}

// ClearSession expires the session cookie. Tokens are not revocable
// server-side; the client simply stops presenting one.
func (g *Gateway) ClearSession(w http.ResponseWriter, r *http.Request) {
	if g == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.config.Token.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	g.metrics.Inc(MetricSessionCleared)
	g.audit.Emit(r.Context(), AuditEvent{
		EventType: EventSessionCleared,
		IP:        ClientIP(r),
		Success:   true,
	})
}

// HashPassword derives a storable credential for registration and password
// change.
func (g *Gateway) HashPassword(pw string) (password.Credential, error) {
	if g == nil {
		return password.Credential{}, ErrGatewayNotReady
	}
	return g.passwords.Hash(pw)
}

// CheckPassword verifies a login attempt against a stored credential.
// A mismatch returns [ErrInvalidCredentials]; callers are expected to map it
// and "user not found" to the same response.
func (g *Gateway) CheckPassword(ctx context.Context, pw string, cred password.Credential) error {
	if g == nil {
		return ErrGatewayNotReady
	}

	ok, err := g.passwords.Verify(pw, cred)
	if err != nil {
		return err
	}
	if !ok {
		g.metrics.Inc(MetricPasswordMismatch)
		g.audit.Emit(ctx, AuditEvent{
			EventType: EventLoginRejected,
			Error:     ErrInvalidCredentials.Error(),
		})
		return ErrInvalidCredentials
	}
	return nil
}

// Allow runs the scope's rate limiter for the identifier. Store failures are
// resolved by the configured fail mode; the error is surfaced for logging
// while the decision stays actionable.
func (g *Gateway) Allow(ctx context.Context, scope ratelimit.Scope, identifier string) (ratelimit.Decision, error) {
	if g == nil {
		return ratelimit.Decision{}, ErrGatewayNotReady
	}

	limiter, ok := g.limiters[scope]
	if !ok {
		return ratelimit.Decision{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	decision, err := limiter.Allow(ctx, identifier)
	switch {
	case err != nil:
		g.metrics.Inc(MetricThrottleStoreFailure)
		g.logger.Error("rate limit store failure",
			"scope", string(scope), "fail_open", decision.Allowed, "error", err)
		g.audit.Emit(ctx, AuditEvent{
			EventType: EventThrottleFailure,
			Scope:     string(scope),
			IP:        identifier,
			Success:   decision.Allowed,
			Error:     err.Error(),
		})
	case decision.Allowed:
		g.metrics.Inc(MetricThrottleAllowed)
	default:
		g.metrics.Inc(MetricThrottleBlocked)
		g.audit.Emit(ctx, AuditEvent{
			EventType: EventThrottleBlocked,
			Scope:     string(scope),
			IP:        identifier,
		})
	}

	return decision, err
}

// VerifyCSRF validates the double-submit pair on a mutating request.
func (g *Gateway) VerifyCSRF(r *http.Request) bool {
	if g == nil {
		return false
	}

	if g.guard.Validate(r) {
		return true
	}

	g.metrics.Inc(MetricCSRFRejected)
	g.audit.Emit(r.Context(), AuditEvent{
		EventType: EventCSRFRejected,
		IP:        ClientIP(r),
	})
	return false
}

// CSRF exposes the guard for middleware that issues and attaches secrets.
func (g *Gateway) CSRF() *csrf.Guard {
	if g == nil {
		return nil
	}
	return g.guard
}

// Metrics exposes the counter set, e.g. for export bridges.
func (g *Gateway) Metrics() *Metrics {
	if g == nil {
		return nil
	}
	return g.metrics
}

// MetricsSnapshot copies the gateway counters.
func (g *Gateway) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports audit events shed under backpressure.
func (g *Gateway) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.audit.Dropped()
}

// ClientIP extracts the throttle identifier for a request: the first
// X-Forwarded-For hop when present, otherwise the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
