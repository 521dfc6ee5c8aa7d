package middleware

import (
	"context"
	"net/http"

	gatekit "github.com/veilpost/gatekit"
)

type csrfTokenContextKey struct{}

// CSRFTokenFromContext returns the per-session CSRF secret for templates to
// echo in forms. Set by [Protect] on safe methods.
func CSRFTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(csrfTokenContextKey{}).(string)
	return token, ok && token != ""
}

// Protect implements the double-submit CSRF pattern.
//
// Safe methods (GET, HEAD, OPTIONS) ensure the secret cookie exists, issuing
// one when absent, and expose the value in the request context. Mutating
// methods validate the cookie against the echoed copy and reject mismatches
// with 403. Validation failure is terminal; there is no soft mode.
func Protect(gw *gatekit.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				token, ok := gw.CSRF().TokenFromRequest(r)
				if !ok {
					issued, err := gw.CSRF().IssueToken()
					if err != nil {
						http.Error(w, "internal server error", http.StatusInternalServerError)
						return
					}
					gw.CSRF().Attach(w, issued)
					gw.Metrics().Inc(gatekit.MetricCSRFIssued)
					token = issued
				}
				ctx := context.WithValue(r.Context(), csrfTokenContextKey{}, token)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if !gw.VerifyCSRF(r) {
				http.Error(w, "invalid CSRF token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
