// Package token issues and verifies signed, claims-bearing session tokens
// (JWT, HS256) for cookie-based authentication paths.
//
// # Failure taxonomy
//
// Verify never collapses failures into a bare nil result. Every rejection maps
// to one of the exported sentinel errors (ErrInvalidFormat, ErrInvalidSignature,
// ErrTokenExpired, ErrTokenNotYetValid, ErrInvalidIssuer, ErrInvalidAudience)
// so callers and audit logs can distinguish "expired" from "forged" from
// "malformed".
//
// # Expiry policy
//
// A token is never issued without an expiry. When IssueOptions.ExpiresIn is
// zero the service applies Config.DefaultTTL (one hour unless configured),
// never an unbounded lifetime.
//
// # What this package must NOT do
//
//   - Persist or revoke tokens — compromise is mitigated by short expiry only.
//   - Import any other gatekit package.
package token
