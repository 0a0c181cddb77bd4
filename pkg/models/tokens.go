package models

import "time"

// TokenPair is the access/refresh pair returned by login, registration,
// and refresh. The refresh token value is opaque and only ever returned
// here; the store keeps its hash.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionLineage is the chain of refresh tokens descending from one login.
// CurrentVersion identifies the single valid refresh token; presenting an
// older version is treated as replay.
type SessionLineage struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CurrentVersion int64     `json:"current_version"`
	Revoked        bool      `json:"revoked"`
	CreatedAt      time.Time `json:"created_at"`
}

// RefreshToken is the stored (hashed) form of an opaque refresh token
type RefreshToken struct {
	ID        string    `json:"id"`
	LineageID string    `json:"lineage_id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	Version   int64     `json:"version"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// WalletProof carries the signed message presented at contract login.
// Signature verification is delegated to the configured proof verifier.
type WalletProof struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}
