// Package ratelimit implements a sliding-window request throttle over an
// injected key-value store.
//
// # Window semantics
//
// Each (scope, identifier) key holds the ordered timestamps of requests
// admitted within the trailing window, JSON-encoded, with the store TTL equal
// to the window. Stale timestamps are pruned before every admission decision;
// at most MaxRequests timestamps younger than the window are ever counted.
//
// The read-modify-write against the store is not atomic: concurrent requests
// from the same identifier can race into a bounded double-admit. This is a
// throttle, not an exact quota — the inaccuracy is accepted.
//
// # Failure policy
//
// A store failure is resolved by the configured [FailMode]: FailOpen keeps
// the site available at the cost of throttling, FailClosed keeps throttling
// at the cost of availability. The mode must be chosen explicitly; an
// unspecified mode is a construction error, never a silent default. The same
// goes for the global disable flag, which is logged at construction.
//
// # What this package must NOT do
//
//   - Talk to a concrete backend — all I/O goes through [kv.Store].
//   - Retry internally; transient store failures surface to the caller.
package ratelimit
