// Package validation holds the structural checks applied to identity
// payloads before any store access. Errors returned here are always
// errs.InvalidIdentity; uniqueness is the store's concern.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

const (
	// MinPasswordLength matches the registration form contract
	MinPasswordLength = 8
	// MaxPasswordLength keeps bcrypt input inside its 72-byte limit
	MaxPasswordLength = 72

	walletAddressMinLen = 32
	walletAddressMaxLen = 44
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	// Base58 alphabet: no 0, O, I, or l
	base58Re = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// Username validates the account name shape
func Username(username string) error {
	if !usernameRe.MatchString(username) {
		return errs.E(errs.InvalidIdentity, "username must be 3-32 characters of letters, digits, or underscore")
	}
	return nil
}

// Email validates an explicit email address
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return errs.E(errs.InvalidIdentity, "invalid email address")
	}
	return nil
}

// Password validates password length bounds
func Password(password string) error {
	if len(password) < MinPasswordLength {
		return errs.E(errs.InvalidIdentity, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return errs.E(errs.InvalidIdentity, fmt.Sprintf("password must be at most %d characters", MaxPasswordLength))
	}
	return nil
}

// WalletAddress validates the base58 structural shape of a wallet address.
// Ownership of the address is proven separately by the proof verifier.
func WalletAddress(address string) error {
	if len(address) < walletAddressMinLen || len(address) > walletAddressMaxLen {
		return errs.E(errs.InvalidIdentity, "wallet address has invalid length")
	}
	if !base58Re.MatchString(address) {
		return errs.E(errs.InvalidIdentity, "wallet address contains invalid characters")
	}
	return nil
}

// Identity validates one registration variant in full
func Identity(identity models.Identity) error {
	if identity == nil {
		return errs.E(errs.InvalidIdentity, "missing identity")
	}
	if err := Username(identity.Name()); err != nil {
		return err
	}
	if email := identity.EmailAddress(); email != "" {
		if err := Email(email); err != nil {
			return err
		}
	}

	switch v := identity.(type) {
	case models.PasswordIdentity:
		return Password(v.Password)
	case models.WalletIdentity:
		return WalletAddress(v.WalletAddress)
	case models.SocialIdentity:
		if err := WalletAddress(v.WalletAddress); err != nil {
			return err
		}
		if strings.TrimSpace(v.SocialIDHash) == "" || strings.TrimSpace(v.SocialProvider) == "" {
			return errs.E(errs.InvalidIdentity, "social identity requires provider and identity hash")
		}
		return nil
	default:
		return errs.E(errs.InvalidIdentity, "unsupported identity variant")
	}
}
