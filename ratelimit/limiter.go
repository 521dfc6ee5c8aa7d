package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veilpost/gatekit/kv"
)

// Scope distinguishes endpoint classes with independent budgets.
type Scope string

const (
	// ScopeAuth throttles login and registration attempts.
	ScopeAuth Scope = "auth"
	// ScopeAPI throttles general API traffic.
	ScopeAPI Scope = "api"
	// ScopeVote throttles post voting.
	ScopeVote Scope = "vote"
	// ScopeComment throttles comment submission.
	ScopeComment Scope = "comment"
)

// Policy pairs a scope with its window and budget.
type Policy struct {
	Scope       Scope
	Window      time.Duration
	MaxRequests int
}

// Default per-scope policies: strict for credential guessing, loose for
// general traffic.
var (
	AuthPolicy    = Policy{Scope: ScopeAuth, Window: 15 * time.Minute, MaxRequests: 5}
	APIPolicy     = Policy{Scope: ScopeAPI, Window: time.Minute, MaxRequests: 60}
	VotePolicy    = Policy{Scope: ScopeVote, Window: time.Hour, MaxRequests: 10}
	CommentPolicy = Policy{Scope: ScopeComment, Window: time.Hour, MaxRequests: 5}
)

// FailMode selects the admission outcome when the backing store is
// unreachable. The zero value is invalid so the choice is always deliberate.
type FailMode int

const (
	// FailUnspecified is rejected at construction.
	FailUnspecified FailMode = iota
	// FailOpen admits requests on store failure (availability over throttling).
	FailOpen
	// FailClosed denies requests on store failure (throttling over availability).
	FailClosed
)

// ErrStoreUnavailable wraps store failures surfaced by Allow. The returned
// Decision still reflects the configured FailMode.
var ErrStoreUnavailable = errors.New("ratelimit: store unavailable")

// Config holds limiter tuning parameters.
type Config struct {
	Policy   Policy
	FailMode FailMode
	// Disabled bypasses all checks. Operational escape hatch; logged at
	// construction, never silent.
	Disabled bool
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is the instant the window next admits a request when denied,
	// or the end of the current window when allowed.
	ResetAt time.Time
}

// RetryAfter returns the whole seconds a denied caller should wait, rounded
// up, never negative. Callers map it to a Retry-After header.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int((d.ResetAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Limiter grants or denies requests for one scope against a shared store.
type Limiter struct {
	store  kv.Store
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a [Limiter]. Unless disabled, the policy must carry a positive
// window and budget and the fail mode must be specified.
func New(store kv.Store, cfg Config, logger *slog.Logger) (*Limiter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Disabled {
		logger.Warn("rate limiting disabled by configuration",
			"scope", string(cfg.Policy.Scope))
		return &Limiter{config: cfg, logger: logger, now: time.Now}, nil
	}

	if store == nil {
		return nil, errors.New("ratelimit: nil store")
	}
	if cfg.Policy.Window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}
	if cfg.Policy.MaxRequests <= 0 {
		return nil, errors.New("ratelimit: max requests must be positive")
	}
	if cfg.FailMode != FailOpen && cfg.FailMode != FailClosed {
		return nil, errors.New("ratelimit: fail mode must be FailOpen or FailClosed")
	}

	return &Limiter{store: store, config: cfg, logger: logger, now: time.Now}, nil
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy {
	return l.config.Policy
}

// Allow decides whether one more request from identifier fits the window,
// recording it when admitted.
//
// On store failure the returned error wraps [ErrStoreUnavailable] and the
// Decision follows the configured FailMode, so callers can act on the
// decision and log the error independently.
func (l *Limiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	p := l.config.Policy
	now := l.now()

	if l.config.Disabled {
		return Decision{Allowed: true, Limit: p.MaxRequests, Remaining: p.MaxRequests, ResetAt: now.Add(p.Window)}, nil
	}

	if identifier == "" {
		identifier = "unknown"
	}
	key := fmt.Sprintf("rl:%s:%s", p.Scope, identifier)

	windowMs := p.Window.Milliseconds()
	nowMs := now.UnixMilli()
	windowStart := nowMs - windowMs

	var stamps []int64
	raw, err := l.store.Get(ctx, key)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &stamps); err != nil {
			// Corrupt record: start a fresh window rather than locking the
			// identifier out forever.
			l.logger.Warn("discarding corrupt rate limit record", "key", key)
			stamps = nil
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		return l.failDecision(now), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	recent := make([]int64, 0, len(stamps)+1)
	for _, ts := range stamps {
		if ts > windowStart {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= p.MaxRequests {
		return Decision{
			Allowed: false,
			Limit:   p.MaxRequests,
			ResetAt: time.UnixMilli(recent[0] + windowMs),
		}, nil
	}

	recent = append(recent, nowMs)
	encoded, err := json.Marshal(recent)
	if err != nil {
		return l.failDecision(now), err
	}
	if err := l.store.Put(ctx, key, encoded, p.Window); err != nil {
		return l.failDecision(now), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return Decision{
		Allowed:   true,
		Limit:     p.MaxRequests,
		Remaining: p.MaxRequests - len(recent),
		ResetAt:   now.Add(p.Window),
	}, nil
}

func (l *Limiter) failDecision(now time.Time) Decision {
	p := l.config.Policy
	if l.config.FailMode == FailOpen {
		return Decision{Allowed: true, Limit: p.MaxRequests, ResetAt: now.Add(p.Window)}
	}
	return Decision{Allowed: false, Limit: p.MaxRequests, ResetAt: now.Add(p.Window)}
}
