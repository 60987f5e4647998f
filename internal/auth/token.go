package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// TokenManager issues opaque bearer tokens. Only the SHA-256 digest is ever
// persisted; the raw token is handed to the client once.
type TokenManager struct{}

// NewTokenManager builds a new manager.
func NewTokenManager() *TokenManager {
	return &TokenManager{}
}

// GenerateToken returns a fresh 64 character hex token and its storage hash.
func (tm *TokenManager) GenerateToken() (token string, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate session token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken returns the storage form of a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
