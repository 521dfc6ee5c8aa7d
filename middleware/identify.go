package middleware

import (
	"context"
	"errors"
	"net/http"

	gatekit "github.com/veilpost/gatekit"
	"github.com/veilpost/gatekit/token"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity resolved by [Identify]. The second
// return is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (*gatekit.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*gatekit.Identity)
	return identity, ok && identity != nil
}

// Identify resolves the session cookie into a context identity and continues.
//
// Anonymous requests pass through untouched. An expired or forged token also
// passes through as anonymous — rejecting is the route handler's call — but
// the stale cookie is cleared so the client stops presenting it.
func Identify(gw *gatekit.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := gw.Authenticate(r)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					gw.ClearSession(w, r)
				}
				next.ServeHTTP(w, r)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that [Identify] left anonymous.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
