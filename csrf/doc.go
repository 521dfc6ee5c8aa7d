// Package csrf implements double-submit cookie protection against cross-site
// request forgery.
//
// A random secret is issued once per browser session in an HttpOnly,
// SameSite=Strict cookie. Mutating requests must echo the same value back —
// via a csrf_token form field, a csrf_token JSON body field, or the
// X-CSRF-Token header, selected by the request's declared content type. A
// cross-origin page can trigger a request that carries the cookie, but it
// cannot read the cookie to forge the matching submitted value.
//
// No server-side session store is involved; validity is simply "both values
// present and byte-equal", and validation fails closed.
//
// # What this package must NOT do
//
//   - Log or persist issued secrets.
//   - Decide which routes are mutating — that is middleware policy.
package csrf
