package token

import "errors"

var (
	// ErrInvalidFormat rejects tokens that are not three dot-separated
	// base64url segments of valid JSON.
	ErrInvalidFormat = errors.New("invalid token format")
	// ErrInvalidSignature rejects tokens whose MAC does not verify against
	// the configured secret.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired rejects tokens whose exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid rejects tokens whose nbf claim is in the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")
	// ErrInvalidIssuer rejects tokens whose iss claim does not match the
	// verifier's expectation.
	ErrInvalidIssuer = errors.New("invalid token issuer")
	// ErrInvalidAudience rejects tokens whose aud claim does not match the
	// verifier's expectation.
	ErrInvalidAudience = errors.New("invalid token audience")
	// ErrVerification wraps verification failures that do not map to a more
	// specific sentinel.
	ErrVerification = errors.New("token verification failed")
	// ErrSecretTooShort rejects signing secrets below the HS256 security margin.
	ErrSecretTooShort = errors.New("signing secret below minimum length")
)
