// Package middleware exposes HTTP adapters over the gateway: identity
// resolution, per-scope throttling, CSRF protection, and baseline security
// headers.
//
// # Chain
//
//   - [SecurityHeaders] — response hardening headers on every route.
//   - [Identify] — resolves the session cookie into a request-context identity.
//   - [Throttle] — enforces one rate-limit scope and sets X-RateLimit headers.
//   - [Protect] — issues the CSRF secret on safe methods, validates the
//     double-submit pair on mutating ones.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into gateway calls. It does NOT
// implement authentication, throttling, or CSRF logic itself — every decision
// is delegated to the gateway.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly.
//   - Touch the rate-limit store.
//   - Compare CSRF values itself.
package middleware
