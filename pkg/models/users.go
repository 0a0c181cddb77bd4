package models

import "time"

// User represents an end-user account. Accounts are never hard-deleted;
// IsActive=false soft-disables them while preserving token and client
// references.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	SocialIDHash   string    `json:"-"`
	SocialProvider string    `json:"social_provider,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsContract reports whether the account is anchored to a verified wallet
func (u *User) IsContract() bool {
	return u.WalletAddress != ""
}

// WalletLink relates a user to the wallet address and the social-provider
// hash that proved control of it at registration time
type WalletLink struct {
	WalletAddress string    `json:"wallet_address"`
	UserID        string    `json:"user_id"`
	SocialIDHash  string    `json:"-"`
	LinkedAt      time.Time `json:"linked_at"`
}

// Identity is the tagged registration payload. Exactly one concrete variant
// is dispatched per request; handlers never probe optional fields downstream.
type Identity interface {
	identityVariant()
	Name() string
	EmailAddress() string
}

// PasswordIdentity registers an account secured by a password
type PasswordIdentity struct {
	Username string
	Email    string
	Password string
}

// WalletIdentity registers a contract account anchored to a wallet address
type WalletIdentity struct {
	Username      string
	Email         string
	WalletAddress string
}

// SocialIdentity registers a contract account whose wallet control was
// proven through a social provider at signup
type SocialIdentity struct {
	Username       string
	Email          string
	WalletAddress  string
	SocialIDHash   string
	SocialProvider string
}

func (PasswordIdentity) identityVariant() {}
func (WalletIdentity) identityVariant()   {}
func (SocialIdentity) identityVariant()   {}

func (i PasswordIdentity) Name() string { return i.Username }
func (i WalletIdentity) Name() string   { return i.Username }
func (i SocialIdentity) Name() string   { return i.Username }

func (i PasswordIdentity) EmailAddress() string { return i.Email }
func (i WalletIdentity) EmailAddress() string   { return i.Email }
func (i SocialIdentity) EmailAddress() string   { return i.Email }
