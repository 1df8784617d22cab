package security

import (
	"crypto/rand"
	"encoding/hex"
)

// NewAuthSecret returns a fresh random per-user auth secret (32 bytes, hex-encoded).
// Issued into session tokens and persisted against the user; rotating it
// invalidates all tokens signed with the previous value.
func NewAuthSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
