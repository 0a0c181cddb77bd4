// Package identity implements registration and credential verification.
// It owns the checks that gate account creation and login; token issuance
// lives elsewhere and is only reached after this package has said yes.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MohamedAshiq09/authentify/internal/store"
	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
	"github.com/MohamedAshiq09/authentify/pkg/validation"
)

// ProofVerifier checks that a wallet proof demonstrates control of the
// wallet address. Implementations decide what a valid proof looks like;
// this package only routes the outcome. A nil error means proven.
type ProofVerifier interface {
	Verify(ctx context.Context, walletAddress string, proof models.WalletProof) error
}

// EVMVerifier verifies personal-sign proofs in process, without calling
// out to a verification service
type EVMVerifier struct{}

// Verify checks message freshness and recovers the signer address from
// the signature
func (EVMVerifier) Verify(ctx context.Context, walletAddress string, proof models.WalletProof) error {
	if err := auth.ValidateWalletMessageTimestamp(proof.Message); err != nil {
		return errs.Wrap(errs.InvalidCredentials, "wallet proof rejected", err)
	}
	valid, err := auth.VerifyEVMSignature(walletAddress, proof.Message, proof.Signature)
	if err != nil {
		return errs.Wrap(errs.InvalidCredentials, "wallet proof rejected", err)
	}
	if !valid {
		return errs.E(errs.InvalidCredentials, "wallet proof rejected")
	}
	return nil
}

// DerivedEmailDomain is the domain for emails derived at registration when
// the caller supplies none. Derived addresses inherit username uniqueness.
const DerivedEmailDomain = "users.noreply.authentify.dev"

// DeriveEmail builds the placeholder address for an email-less registration
func DeriveEmail(username string) string {
	return username + "@" + DerivedEmailDomain
}

// Service verifies registrations and login credentials
type Service struct {
	store    store.Store
	verifier ProofVerifier
	logger   logging.Logger
}

// NewService creates a credential verification service
func NewService(s store.Store, verifier ProofVerifier, logger logging.Logger) *Service {
	return &Service{store: s, verifier: verifier, logger: logger}
}

// Register creates an account from one identity variant. The password is
// hashed exactly once here; wallet addresses are checked structurally and
// become login-capable immediately.
func (s *Service) Register(ctx context.Context, identity models.Identity) (*models.User, error) {
	if err := validation.Identity(identity); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Username: identity.Name(),
		Email:    identity.EmailAddress(),
		IsActive: true,
	}
	if user.Email == "" {
		user.Email = DeriveEmail(user.Username)
	}

	switch v := identity.(type) {
	case models.PasswordIdentity:
		hash, err := auth.HashPassword(v.Password)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "failed to process credentials", err)
		}
		user.PasswordHash = hash
	case models.WalletIdentity:
		user.WalletAddress = v.WalletAddress
	case models.SocialIdentity:
		user.WalletAddress = v.WalletAddress
		user.SocialIDHash = v.SocialIDHash
		user.SocialProvider = v.SocialProvider
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.WithFields(logging.Fields{
		"user_id":  user.ID,
		"contract": user.IsContract(),
	}).Info("User registered")
	return user, nil
}

// VerifyPassword checks a username-or-email login. Unknown accounts, wrong
// passwords, contract-only accounts, and disabled accounts all collapse
// into the same InvalidCredentials answer.
func (s *Service) VerifyPassword(ctx context.Context, usernameOrEmail, password string) (*models.User, error) {
	user, err := s.store.GetUserByLogin(ctx, usernameOrEmail)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.E(errs.InvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	if user.PasswordHash == "" || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errs.E(errs.InvalidCredentials, "invalid credentials")
	}
	if !user.IsActive {
		return nil, errs.E(errs.InvalidCredentials, "invalid credentials")
	}
	return user, nil
}

// VerifyWalletProof checks a contract login. The proof decision is fully
// delegated to the configured verifier.
func (s *Service) VerifyWalletProof(ctx context.Context, walletAddress string, proof models.WalletProof) (*models.User, error) {
	user, err := s.store.GetUserByWallet(ctx, walletAddress)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.E(errs.InvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := s.verifier.Verify(ctx, walletAddress, proof); err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.E(errs.InvalidCredentials, "invalid credentials")
	}
	return user, nil
}

// GetUser loads the account behind an authenticated request
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.E(errs.Unauthorized, "account not found")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// Disable soft-disables an account. Existing rows are preserved; the
// account simply stops authenticating.
func (s *Service) Disable(ctx context.Context, userID string) error {
	if err := s.store.DisableUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.E(errs.Unauthorized, "account not found")
		}
		return mapStoreError(err)
	}
	s.logger.WithField("user_id", userID).Info("User disabled")
	return nil
}

func mapStoreError(err error) error {
	var dup *store.DuplicateError
	if errors.As(err, &dup) {
		return errs.Wrap(errs.DuplicateIdentity, dup.Field+" already registered", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.Unavailable, "identity store unavailable", err)
	}
	return errs.Wrap(errs.Internal, "identity store error", err)
}
