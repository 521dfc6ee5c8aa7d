package csrf

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName carries the per-session secret.
	CookieName = "csrf_token"
	// FormField is the echoed field name for form and JSON submissions.
	FormField = "csrf_token"
	// HeaderName is the echoed header for other content types.
	HeaderName = "X-CSRF-Token"

	// DefaultMaxAge bounds the secret cookie's lifetime.
	DefaultMaxAge = time.Hour

	tokenBytes        = 32 // 256 bits of entropy
	maxJSONBody       = 1 << 20
	maxMultipartMemory = 32 << 20
)

// Config holds cookie attributes for issued secrets.
type Config struct {
	CookiePath   string
	CookieSecure bool
	MaxAge       time.Duration
}

// Guard issues and validates double-submit secrets.
type Guard struct {
	config Config
}

// New creates a [Guard]. Zero config fields fall back to Path=/ and
// [DefaultMaxAge].
func New(cfg Config) *Guard {
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Guard{config: cfg}
}

// IssueToken returns a fresh random secret: 32 bytes of cryptographically
// strong randomness, base64url-encoded.
func (g *Guard) IssueToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Attach sets the secret cookie on the response: HttpOnly, SameSite=Strict,
// scoped to the whole site path.
func (g *Guard) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     g.config.CookiePath,
		MaxAge:   int(g.config.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   g.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest returns the secret carried by the request's cookie.
func (g *Guard) TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Validate reports whether the request's cookie secret and the echoed
// submission match. Either side missing fails closed.
//
// The submitted value is extracted by declared content type: form field for
// urlencoded and multipart bodies, csrf_token body field for JSON, the
// X-CSRF-Token header otherwise. JSON bodies are restored so downstream
// handlers can re-read them.
func (g *Guard) Validate(r *http.Request) bool {
	cookieToken, ok := g.TokenFromRequest(r)
	if !ok {
		return false
	}

	submitted := g.submittedToken(r)
	if submitted == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

func (g *Guard) submittedToken(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.PostForm.Get(FormField)
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return ""
		}
		return r.PostForm.Get(FormField)
	case mediaType == "application/json":
		return g.jsonToken(r)
	default:
		return r.Header.Get(HeaderName)
	}
}

// jsonToken reads the csrf_token field from a JSON body and puts the body
// back for downstream handlers.
func (g *Guard) jsonToken(r *http.Request) string {
	if r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var envelope struct {
		Token string `json:"csrf_token"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Token
}
