package middleware

import (
	"net/http"
	"strconv"
	"time"

	gatekit "github.com/veilpost/gatekit"
	"github.com/veilpost/gatekit/ratelimit"
)

// Throttle enforces the scope's rate limit keyed by client IP.
//
// Admitted requests carry X-RateLimit-Limit, X-RateLimit-Remaining, and
// X-RateLimit-Reset so well-behaved clients can pace themselves. Denied
// requests get 429 with Retry-After in whole seconds.
func Throttle(gw *gatekit.Gateway, scope ratelimit.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := gw.Allow(r.Context(), scope, gatekit.ClientIP(r))
			if err != nil && !decision.Allowed {
				// Store failure under fail-closed reads as unavailable,
				// not as the caller's fault.
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			setRateLimitHeaders(w, decision)
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter(time.Now())))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if !decision.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", decision.ResetAt.UTC().Format(time.RFC3339))
	}
}
