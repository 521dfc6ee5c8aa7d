// Package kv defines the key-value store contract consumed by the rate
// limiter: get by key, put with TTL, nothing else.
//
// Two implementations ship with it: [Redis], the production store, and
// [Memory], an in-process store for tests and single-node deployments.
//
// # What this package must NOT do
//
//   - Grow beyond get/put-with-TTL — throttling semantics live in ratelimit.
//   - Interpret stored values; they are opaque bytes.
package kv
