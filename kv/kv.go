package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports an absent or expired key.
	ErrNotFound = errors.New("kv: key not found")
	// ErrUnavailable wraps transport or backend failures.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Store is the minimal contract the rate limiter depends on. Implementations
// must be safe for concurrent use; reads and writes to a key are independent
// round trips with no cross-request locking.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key. A positive ttl bounds the entry's
	// lifetime; zero or negative means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
