package gatekit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veilpost/gatekit/kv"
	"github.com/veilpost/gatekit/ratelimit"
	"github.com/veilpost/gatekit/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func gatewayTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.Secret = testSecret
	return cfg
}

func newTestGateway(t *testing.T, cfg Config, opts ...Option) *Gateway {
	t.Helper()

	gw, err := New(cfg, kv.NewMemory(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(gw.Close)
	return gw
}

func sessionRequest(t *testing.T, cookie *http.Cookie) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestNewRejectsShortSecret(t *testing.T) {
	cfg := gatewayTestConfig()
	cfg.Token.Secret = []byte("short")

	if _, err := New(cfg, kv.NewMemory()); !errors.Is(err, token.ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}

func TestAuthenticateNoCookieIsAnonymous(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	identity, err := gw.Authenticate(sessionRequest(t, nil))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected anonymous identity, got %+v", identity)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	w := httptest.NewRecorder()
	issueReq := httptest.NewRequest(http.MethodPost, "/login", nil)
	signed, err := gw.IssueSession(w, issueReq, token.Claims{"sub": "alice", "role": "admin"}, token.IssueOptions{})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if signed == "" {
		t.Fatal("expected signed token")
	}

	cookie := findCookie(t, w, SessionCookieName)
	if cookie.Value != signed {
		t.Fatal("cookie value does not match issued token")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", cookie.SameSite)
	}

	identity, err := gw.Authenticate(sessionRequest(t, cookie))
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity == nil || identity.Subject != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.Claims["role"] != "admin" {
		t.Fatalf("expected role claim to survive round trip, got %v", identity.Claims["role"])
	}
	if identity.ExpiresAt.IsZero() || !identity.ExpiresAt.After(identity.IssuedAt) {
		t.Fatalf("expected exp after iat, got iat=%v exp=%v", identity.IssuedAt, identity.ExpiresAt)
	}

	snap := gw.MetricsSnapshot()
	if snap.Counters[MetricSessionIssued] != 1 {
		t.Fatalf("expected 1 session issued, got %d", snap.Counters[MetricSessionIssued])
	}
	if snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatalf("expected 1 auth success, got %d", snap.Counters[MetricAuthSuccess])
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := stale.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	_, err = gw.Authenticate(sessionRequest(t, &http.Cookie{Name: SessionCookieName, Value: signed}))
	if !errors.Is(err, token.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if got := gw.MetricsSnapshot().Counters[MetricAuthExpired]; got != 1 {
		t.Fatalf("expected 1 expired auth, got %d", got)
	}
}

func TestAuthenticateTamperedTokenAudited(t *testing.T) {
	sink := newCaptureSink(4)
	gw := newTestGateway(t, gatewayTestConfig(), WithAuditSink(sink))

	w := httptest.NewRecorder()
	signed, err := gw.IssueSession(w, httptest.NewRequest(http.MethodPost, "/login", nil), token.Claims{"sub": "alice"}, token.IssueOptions{})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	tampered := signed[:len(signed)-2] + "xx"
	_, err = gw.Authenticate(sessionRequest(t, &http.Cookie{Name: SessionCookieName, Value: tampered}))
	if err == nil {
		t.Fatal("expected verification error for tampered token")
	}
	if got := gw.MetricsSnapshot().Counters[MetricAuthInvalid]; got != 1 {
		t.Fatalf("expected 1 invalid auth, got %d", got)
	}

	event := waitForEvent(t, sink, EventAuthFailure)
	if event.Error == "" {
		t.Fatal("expected audit event to carry the failure reason")
	}
}

func TestClearSessionExpiresCookie(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	w := httptest.NewRecorder()
	gw.ClearSession(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookie := findCookie(t, w, SessionCookieName)
	if cookie.MaxAge != -1 {
		t.Fatalf("expected MaxAge=-1, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Fatalf("expected empty value, got %q", cookie.Value)
	}
	if got := gw.MetricsSnapshot().Counters[MetricSessionCleared]; got != 1 {
		t.Fatalf("expected 1 session cleared, got %d", got)
	}
}

func TestCheckPassword(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	cred, err := gw.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if err := gw.CheckPassword(context.Background(), "correct horse battery staple", cred); err != nil {
		t.Fatalf("expected matching password to pass, got %v", err)
	}
	if err := gw.CheckPassword(context.Background(), "wrong password entirely", cred); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if got := gw.MetricsSnapshot().Counters[MetricPasswordMismatch]; got != 1 {
		t.Fatalf("expected 1 password mismatch, got %d", got)
	}
}

func TestAllowUnknownScope(t *testing.T) {
	gw := newTestGateway(t, gatewayTestConfig())

	if _, err := gw.Allow(context.Background(), ratelimit.Scope("upload"), "203.0.113.1"); !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestAllowBlocksOverLimit(t *testing.T) {
	sink := newCaptureSink(16)
	gw := newTestGateway(t, gatewayTestConfig(), WithAuditSink(sink))

	ctx := context.Background()
	for i := 0; i < ratelimit.AuthPolicy.MaxRequests; i++ {
		decision, err := gw.Allow(ctx, ratelimit.ScopeAuth, "203.0.113.1")
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d unexpectedly blocked", i)
		}
	}

	decision, err := gw.Allow(ctx, ratelimit.ScopeAuth, "203.0.113.1")
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected request over limit to be blocked")
	}

	other, err := gw.Allow(ctx, ratelimit.ScopeAuth, "203.0.113.2")
	if err != nil || !other.Allowed {
		t.Fatalf("different identifier should not share a window: allowed=%v err=%v", other.Allowed, err)
	}

	snap := gw.MetricsSnapshot()
	if snap.Counters[MetricThrottleBlocked] != 1 {
		t.Fatalf("expected 1 blocked, got %d", snap.Counters[MetricThrottleBlocked])
	}

	event := waitForEvent(t, sink, EventThrottleBlocked)
	if event.Scope != string(ratelimit.ScopeAuth) {
		t.Fatalf("expected auth scope in audit event, got %q", event.Scope)
	}
}

func TestVerifyCSRFRejectionAudited(t *testing.T) {
	sink := newCaptureSink(4)
	gw := newTestGateway(t, gatewayTestConfig(), WithAuditSink(sink))

	r := httptest.NewRequest(http.MethodPost, "/comment", nil)
	if gw.VerifyCSRF(r) {
		t.Fatal("expected request without CSRF pair to be rejected")
	}
	if got := gw.MetricsSnapshot().Counters[MetricCSRFRejected]; got != 1 {
		t.Fatalf("expected 1 CSRF rejection, got %d", got)
	}
	waitForEvent(t, sink, EventCSRFRejected)
}

func TestNilGatewayIsInert(t *testing.T) {
	var gw *Gateway

	if _, err := gw.Authenticate(sessionRequest(t, nil)); !errors.Is(err, ErrGatewayNotReady) {
		t.Fatalf("expected ErrGatewayNotReady, got %v", err)
	}
	if _, err := gw.Allow(context.Background(), ratelimit.ScopeAPI, "x"); !errors.Is(err, ErrGatewayNotReady) {
		t.Fatalf("expected ErrGatewayNotReady, got %v", err)
	}
	if gw.VerifyCSRF(httptest.NewRequest(http.MethodPost, "/", nil)) {
		t.Fatal("nil gateway must fail closed")
	}
	gw.ClearSession(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	gw.Close()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.7:4412"
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("expected RemoteAddr host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ""
	if got := ClientIP(r); got != "unknown" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func waitForEvent(t *testing.T, sink *captureSink, eventType string) AuditEvent {
	t.Helper()

	deadline := time.After(time.Second)
	for {
		select {
		case event := <-sink.events:
			if event.EventType == eventType {
				if event.ID == "" || event.Timestamp.IsZero() {
					t.Fatalf("event %q missing ID or timestamp: %+v", eventType, event)
				}
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q audit event", eventType)
		}
	}
}
