package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// RefreshTokenLength is the character length of opaque refresh tokens
const RefreshTokenLength = 40

// GenerateOpaqueToken produces a high-entropy random token from a
// URL-safe charset
func GenerateOpaqueToken(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// GenerateSecureToken produces n random bytes hex-encoded
func GenerateSecureToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// HashToken hashes an opaque token for storage. Only hashes are persisted;
// a leaked store cannot replay refresh tokens.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
