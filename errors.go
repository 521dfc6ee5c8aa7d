package gatekit

import "errors"

var (
	// ErrGatewayNotReady reports use of a nil or unbuilt gateway.
	ErrGatewayNotReady = errors.New("gateway not initialized")
	// ErrInvalidCredentials reports a password that does not match its
	// stored credential. Callers treat it identically to "user not found"
	// to resist username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownScope reports a rate-limit check against a scope the
	// gateway was not configured with.
	ErrUnknownScope = errors.New("unknown rate limit scope")
)
