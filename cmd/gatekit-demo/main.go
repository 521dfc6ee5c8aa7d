// Package main demonstrates wiring the gateway into a small HTTP server.
//
// It starts on :8080 backed by miniredis (no external Redis required) and a
// single seeded account.
//
// Endpoints:
//
//	GET  /         — public page; issues the CSRF cookie
//	POST /login    — form login (username=alice password=correct-horse)
//	POST /logout   — clears the session
//	GET  /me       — requires a session
//	POST /comment  — requires session + CSRF echo; comment-scoped throttle
//	GET  /metrics  — Prometheus text format
//
// Run:
//
//	go run ./cmd/gatekit-demo
//
// Then:
//
//	curl -i -c jar.txt localhost:8080/
//	curl -i -b jar.txt -c jar.txt -X POST localhost:8080/login \
//	  -d 'username=alice&password=correct-horse&csrf_token=<COOKIE VALUE>'
//	curl -i -b jar.txt localhost:8080/me
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	gatekit "github.com/veilpost/gatekit"
	"github.com/veilpost/gatekit/kv"
	"github.com/veilpost/gatekit/metrics/export/prometheus"
	"github.com/veilpost/gatekit/middleware"
	"github.com/veilpost/gatekit/password"
	"github.com/veilpost/gatekit/ratelimit"
	"github.com/veilpost/gatekit/token"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	mr, err := miniredis.Run()
	if err != nil {
		logger.Error("miniredis start", "error", err)
		os.Exit(1)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := kv.NewRedis(rdb)

	cfg := gatekit.DefaultConfig()
	cfg.Token.Secret = []byte("demo-secret-demo-secret-demo-secret!")

	gw, err := gatekit.New(cfg, store, gatekit.WithLogger(logger))
	if err != nil {
		logger.Error("gateway build", "error", err)
		os.Exit(1)
	}
	defer gw.Close()

	users := seedUsers(gw)

	mux := http.NewServeMux()

	mux.Handle("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		csrfToken, _ := middleware.CSRFTokenFromContext(r.Context())
		fmt.Fprintf(w, "welcome; echo csrf_token=%s on mutating requests\n", csrfToken)
	}))

	mux.Handle("POST /login", middleware.Throttle(gw, ratelimit.ScopeAuth)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := r.PostFormValue("username")
			cred, ok := users[username]
			if !ok {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if err := gw.CheckPassword(r.Context(), r.PostFormValue("password"), cred); err != nil {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			if _, err := gw.IssueSession(w, r, token.Claims{"sub": username, "role": "admin"}, token.IssueOptions{}); err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			fmt.Fprintln(w, "logged in")
		})))

	mux.Handle("POST /logout", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gw.ClearSession(w, r)
		fmt.Fprintln(w, "logged out")
	}))

	mux.Handle("GET /me", middleware.RequireIdentity(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := middleware.IdentityFromContext(r.Context())
			fmt.Fprintf(w, "subject=%s role=%v expires=%s\n",
				identity.Subject, identity.Claims["role"], identity.ExpiresAt)
		})))

	mux.Handle("POST /comment", middleware.RequireIdentity(middleware.Throttle(gw, ratelimit.ScopeComment)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "comment accepted: %s\n", r.PostFormValue("body"))
		}))))

	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(gw).Handler())

	handler := middleware.SecurityHeaders(
		middleware.Identify(gw)(
			middleware.Protect(gw)(
				middleware.Throttle(gw, ratelimit.ScopeAPI)(mux))))

	logger.Info("listening", "addr", ":8080")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}

func seedUsers(gw *gatekit.Gateway) map[string]password.Credential {
	cred, err := gw.HashPassword("correct-horse")
	if err != nil {
		panic(err)
	}
	return map[string]password.Credential{"alice": cred}
}
