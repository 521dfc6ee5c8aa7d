package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the iteration count applied to new credentials
	// when none is configured. Tunable upward over time without breaking
	// stored records.
	DefaultIterations = 100000
	// DefaultSaltLength is the salt size in bytes for new credentials.
	DefaultSaltLength = 16

	keyLength     = 32 // 256-bit derived key
	minIterations = 10000
	minSaltLength = 16
)

// ErrMalformedCredential rejects stored credentials whose salt or iteration
// count cannot be interpreted.
var ErrMalformedCredential = errors.New("malformed stored credential")

// Config holds hashing parameters for new credentials.
type Config struct {
	Iterations int
	SaltLength int
}

// Credential is the stored form of a password: hex-encoded derived key,
// hex-encoded salt, and the iteration count that produced them.
type Credential struct {
	Hash       string `json:"hash"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Hasher derives and verifies PBKDF2 credentials.
type Hasher struct {
	config Config
}

// New creates a [Hasher]. Zero config fields fall back to the package
// defaults; values below the security floor are rejected.
func New(cfg Config) (*Hasher, error) {
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if cfg.Iterations < minIterations {
		return nil, fmt.Errorf("password iterations must be >= %d", minIterations)
	}
	if cfg.SaltLength < minSaltLength {
		return nil, fmt.Errorf("password salt length must be >= %d", minSaltLength)
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives a credential from the password with a fresh random salt and
// the currently configured iteration count. The password is used byte-for-byte
// as provided.
func (h *Hasher) Hash(password string) (Credential, error) {
	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return Credential{}, err
	}

	derived := pbkdf2.Key([]byte(password), salt, h.config.Iterations, keyLength, sha256.New)

	return Credential{
		Hash:       hex.EncodeToString(derived),
		Salt:       hex.EncodeToString(salt),
		Iterations: h.config.Iterations,
	}, nil
}

// Verify re-derives a key using the credential's stored salt and stored
// iteration count — never the current defaults — and compares it to the
// stored hash in constant time.
//
// A mismatch returns (false, nil). An error is returned only when the stored
// credential itself is malformed (non-hex salt or non-positive iterations).
func (h *Hasher) Verify(password string, cred Credential) (bool, error) {
	salt, err := hex.DecodeString(cred.Salt)
	if err != nil {
		return false, fmt.Errorf("%w: invalid salt encoding", ErrMalformedCredential)
	}
	if cred.Iterations <= 0 {
		return false, fmt.Errorf("%w: invalid iteration count", ErrMalformedCredential)
	}

	derived := pbkdf2.Key([]byte(password), salt, cred.Iterations, keyLength, sha256.New)
	encoded := hex.EncodeToString(derived)

	stored := strings.ToLower(cred.Hash)
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(stored)) == 1, nil
}
