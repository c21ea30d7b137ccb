package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Token sizes in random bytes.
const (
	RefreshTokenBytes = 64
	OneTimeTokenBytes = 32
)

// NewRefreshToken returns a base64 encoded random refresh token.
func NewRefreshToken() (string, error) {
	b, err := randomBytes(RefreshTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// NewOneTimeToken returns a URL-safe random token for password reset and email confirmation links.
func NewOneTimeToken() (string, error) {
	b, err := randomBytes(OneTimeTokenBytes)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the SHA-256 hex digest stored in place of an opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}
