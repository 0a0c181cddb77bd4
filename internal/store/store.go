// Package store is the narrow adapter over the durable identity store.
// It holds no business logic: callers own validation and invariants, the
// adapter owns SQL and driver-error mapping. Multi-step invariants are
// enforced with the store's native atomicity (unique indexes, conditional
// updates), never in-process locks, so multiple service instances can run
// concurrently.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MohamedAshiq09/authentify/pkg/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// DuplicateError reports a uniqueness conflict and which field caused it
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// IsDuplicate reports whether the error chain is a uniqueness conflict
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}

// Store is the durable identity store contract
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	DisableUser(ctx context.Context, id string) error

	// Session lineages and refresh tokens
	CreateLineage(ctx context.Context, lineage *models.SessionLineage) error
	AdvanceLineage(ctx context.Context, lineageID string, fromVersion int64) (bool, error)
	RevokeLineage(ctx context.Context, lineageID string) error
	RevokeUserLineages(ctx context.Context, userID string) error
	InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, *models.SessionLineage, error)

	// SDK clients
	CreateSDKClient(ctx context.Context, client *models.SDKClient) error
	GetSDKClient(ctx context.Context, clientID string) (*models.SDKClient, error)
	ListSDKClients(ctx context.Context, ownerUserID string) ([]*models.SDKClient, error)
	RevokeSDKClient(ctx context.Context, clientID, ownerUserID string) (bool, error)

	// PurgeExpired removes expired refresh tokens. Maintenance only; never
	// called on the request path.
	PurgeExpired(ctx context.Context) (int64, error)
}
