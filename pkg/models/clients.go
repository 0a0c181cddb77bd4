package models

import "time"

// SDKClient is a third-party application integration. The secret is stored
// only as a bcrypt hash; the plaintext is shown exactly once at creation.
// Clients are revoked, never deleted, to keep the audit trail.
type SDKClient struct {
	ClientID     string    `json:"client_id"`
	SecretHash   string    `json:"-"`
	OwnerUserID  string    `json:"owner_user_id"`
	AppName      string    `json:"app_name"`
	AppURL       string    `json:"app_url,omitempty"`
	RedirectURIs []string  `json:"redirect_uris"`
	Revoked      bool      `json:"revoked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SDKClientCredentials is returned once, at client creation
type SDKClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}
