// Package tokens implements session issuance and rotation. Every login
// starts a lineage; every refresh advances it by exactly one version, and
// presenting a superseded token burns the entire lineage.
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedAshiq09/authentify/internal/store"
	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

const (
	// DefaultAccessTTL is the access-token lifetime
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the refresh-token lifetime
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Config holds token service settings
type Config struct {
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues, rotates, and revokes token pairs
type Service struct {
	store      store.Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     logging.Logger
}

// NewService creates a token service. Zero TTLs fall back to the defaults.
func NewService(s store.Store, cfg Config, logger logging.Logger) *Service {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Service{
		store:      s,
		secret:     cfg.JWTSecret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		logger:     logger,
	}
}

// Issue starts a new session lineage for the user and returns its first
// token pair
func (s *Service) Issue(ctx context.Context, userID string) (*models.TokenPair, error) {
	lineage := &models.SessionLineage{
		ID:             uuid.New().String(),
		UserID:         userID,
		CurrentVersion: 1,
	}
	if err := s.store.CreateLineage(ctx, lineage); err != nil {
		return nil, mapStoreError(err)
	}
	pair, err := s.mint(ctx, userID, lineage.ID, 1)
	if err != nil {
		// A lineage without tokens can never be advanced, but don't leave
		// it dangling either.
		if rerr := s.store.RevokeLineage(ctx, lineage.ID); rerr != nil && !errors.Is(rerr, store.ErrNotFound) {
			s.logger.WithError(rerr).WithField("lineage_id", lineage.ID).Warn("Failed to revoke tokenless lineage")
		}
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair. The old token is
// invalid the moment this returns. A superseded token is treated as
// evidence of theft: the whole lineage is revoked, so even the newest
// token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	token, lineage, err := s.store.GetRefreshToken(ctx, auth.HashToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errs.E(errs.InvalidToken, "invalid refresh token")
	}
	if err != nil {
		return nil, mapStoreError(err)
	}

	if lineage.Revoked {
		return nil, errs.E(errs.InvalidToken, "invalid refresh token")
	}
	if time.Now().After(token.ExpiresAt) {
		return nil, errs.E(errs.Expired, "refresh token expired")
	}
	if token.Version < lineage.CurrentVersion {
		// Replay of a rotated token. Someone holds a token that was already
		// exchanged; burn every descendant.
		if err := s.store.RevokeLineage(ctx, lineage.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, mapStoreError(err)
		}
		s.logger.WithFields(logging.Fields{
			"user_id":    token.UserID,
			"lineage_id": lineage.ID,
			"version":    token.Version,
		}).Warn("Refresh token reuse detected, lineage revoked")
		return nil, errs.E(errs.TokenReuseDetected, "refresh token reuse detected")
	}
	if token.Version > lineage.CurrentVersion {
		return nil, errs.E(errs.InvalidToken, "invalid refresh token")
	}

	won, err := s.store.AdvanceLineage(ctx, lineage.ID, token.Version)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !won {
		// A concurrent refresh advanced the lineage first; this caller's
		// token is now superseded.
		return nil, errs.E(errs.InvalidToken, "invalid refresh token")
	}

	return s.mint(ctx, token.UserID, lineage.ID, token.Version+1)
}

func (s *Service) mint(ctx context.Context, userID, lineageID string, version int64) (*models.TokenPair, error) {
	refresh := auth.GenerateOpaqueToken(auth.RefreshTokenLength)
	refreshExpiry := time.Now().Add(s.refreshTTL)

	err := s.store.InsertRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.New().String(),
		LineageID: lineageID,
		UserID:    userID,
		TokenHash: auth.HashToken(refresh),
		Version:   version,
		ExpiresAt: refreshExpiry,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	access, accessExpiry, err := auth.GenerateUserJWT(userID, lineageID, s.secret, s.accessTTL)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to sign access token", err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// VerifyAccess validates an access token offline and returns its claims
func (s *Service) VerifyAccess(tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateJWT(tokenString, s.secret)
	if errors.Is(err, auth.ErrExpiredJWT) {
		return nil, errs.E(errs.Expired, "access token expired")
	}
	if err != nil {
		return nil, errs.E(errs.InvalidToken, "invalid access token")
	}
	return claims, nil
}

// Revoke ends one session lineage. Revoking an already-revoked or unknown
// lineage is a no-op so logout stays idempotent.
func (s *Service) Revoke(ctx context.Context, lineageID string) error {
	err := s.store.RevokeLineage(ctx, lineageID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return mapStoreError(err)
	}
	return nil
}

// RevokeByRefreshToken ends the lineage a refresh token belongs to.
// Unknown tokens are ignored: logout never fails for lack of a session.
func (s *Service) RevokeByRefreshToken(ctx context.Context, refreshToken string) error {
	_, lineage, err := s.store.GetRefreshToken(ctx, auth.HashToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return mapStoreError(err)
	}
	return s.Revoke(ctx, lineage.ID)
}

// RevokeUser ends every lineage belonging to the user
func (s *Service) RevokeUser(ctx context.Context, userID string) error {
	if err := s.store.RevokeUserLineages(ctx, userID); err != nil {
		return mapStoreError(err)
	}
	s.logger.WithField("user_id", userID).Info("All user sessions revoked")
	return nil
}

// PurgeExpired removes refresh tokens past their expiry
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.store.PurgeExpired(ctx)
	if err != nil {
		return 0, mapStoreError(err)
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Expired refresh tokens purged")
	}
	return purged, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.Unavailable, "identity store unavailable", err)
	}
	return errs.Wrap(errs.Internal, "identity store error", err)
}
