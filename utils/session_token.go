package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSessionToken returns a 256-bit random session credential encoded
// as 64 hex characters. Uniqueness is additionally backed by the unique
// index on sessions.token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
