// Package password implements credential hashing and verification with
// PBKDF2-HMAC-SHA-256.
//
// # Storage format
//
// A [Credential] carries the hex-encoded derived key, the hex-encoded salt,
// and the iteration count that produced them. Verification always re-derives
// with the stored salt and stored iteration count, so raising the default
// iteration count never invalidates old records. New credentials always use
// the current configured count.
//
// # Architecture boundaries
//
// This package owns key derivation and comparison only. Password policy
// (length, charset, reuse) is the caller's concern: the input password is
// hashed exactly as provided, never truncated or normalized.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials — callers supply plaintext and receive hashes.
//   - Import any other gatekit package.
//   - Log plaintext passwords.
package password
