// Package gatekit is the authentication and request-security core of a
// server-rendered blog platform: stateless session tokens, password
// credential storage, per-endpoint abuse throttling, and double-submit CSRF
// defense, composed behind a single [Gateway].
//
// The surrounding platform — template rendering, post/comment CRUD, markdown,
// routing — consumes the core through exactly three decisions: the current
// user resolved from a verified token cookie, a pass/fail answer from the
// rate limiter, and a token-match answer from CSRF validation.
//
// # Architecture boundaries
//
// gatekit is the public surface. It exposes [Gateway], [Config], the audit
// types, and [Metrics]. The mechanics live in the sub-packages: token,
// password, ratelimit, kv, csrf, and the net/http adapters in middleware.
//
// # Concurrency
//
// Every component is invoked synchronously per request and holds no lock
// across requests. The only shared mutable state is the rate-limit store
// behind [kv.Store]; concurrent requests from one identifier can race into a
// bounded over-admit, which is accepted. Gateway methods are safe for
// concurrent use after New.
//
// # What this package must NOT do
//
//   - Retry internally — transient store failures surface to the caller.
//   - Keep server-side session state; tokens are bearer credentials with
//     short expiries, not revocable sessions.
package gatekit
