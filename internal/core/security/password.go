// Package security provides credential hashing and opaque token primitives.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing them invalidates every stored hash.
const (
	saltSize   = 16
	keySize    = 32
	iterations = 100_000
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// PBKDF2Hasher stores base64(salt || PBKDF2-HMAC-SHA256(password, salt)).
type PBKDF2Hasher struct{}

// NewPasswordHasher creates the default hasher.
func NewPasswordHasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{}
}

// Hash derives a key with a fresh random salt, so equal passwords never share a hash.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)

	buf := make([]byte, 0, saltSize+keySize)
	buf = append(buf, salt...)
	buf = append(buf, key...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Verify reports whether password matches encoded. Malformed hashes never match.
func (h *PBKDF2Hasher) Verify(password, encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != saltSize+keySize {
		return false
	}

	salt, want := raw[:saltSize], raw[saltSize:]
	got := pbkdf2.Key([]byte(password), salt, iterations, keySize, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
