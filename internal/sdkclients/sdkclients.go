// Package sdkclients manages third-party application credentials. Secrets
// follow the same rules as passwords: bcrypt-hashed at rest, shown in
// plaintext exactly once, verified only by hash comparison.
package sdkclients

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MohamedAshiq09/authentify/internal/store"
	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

const (
	// ClientIDPrefix marks issued client identifiers
	ClientIDPrefix = "ak_"

	clientIDBytes     = 16
	clientSecretBytes = 32

	// ClientTokenTTL bounds SDK bootstrap tokens tighter than user sessions
	ClientTokenTTL = 10 * time.Minute

	maxAppNameLength = 128
)

// Registry issues and verifies SDK client credentials
type Registry struct {
	store  store.Store
	secret []byte
	logger logging.Logger
}

// NewRegistry creates an SDK client registry. secret signs client bootstrap
// tokens and must match the token service's signing key so resource
// middleware can verify both token types.
func NewRegistry(s store.Store, secret []byte, logger logging.Logger) *Registry {
	return &Registry{store: s, secret: secret, logger: logger}
}

// Create registers an application for the owning user and returns its
// credentials. The secret in the response is the only time it exists in
// plaintext; afterwards only the hash remains.
func (r *Registry) Create(ctx context.Context, ownerUserID, appName, appURL string, redirectURIs []string) (*models.SDKClientCredentials, *models.SDKClient, error) {
	appName = strings.TrimSpace(appName)
	if appName == "" || len(appName) > maxAppNameLength {
		return nil, nil, errs.E(errs.InvalidIdentity, "app name is required and must be at most 128 characters")
	}
	for _, uri := range redirectURIs {
		if err := validateRedirectURI(uri); err != nil {
			return nil, nil, err
		}
	}

	clientID := ClientIDPrefix + auth.GenerateSecureToken(clientIDBytes)
	clientSecret := auth.GenerateSecureToken(clientSecretBytes)
	secretHash, err := auth.HashPassword(clientSecret)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Internal, "failed to process credentials", err)
	}

	client := &models.SDKClient{
		ClientID:     clientID,
		SecretHash:   secretHash,
		OwnerUserID:  ownerUserID,
		AppName:      appName,
		AppURL:       strings.TrimSpace(appURL),
		RedirectURIs: redirectURIs,
	}
	if err := r.store.CreateSDKClient(ctx, client); err != nil {
		return nil, nil, mapStoreError(err)
	}

	r.logger.WithFields(logging.Fields{
		"client_id": clientID,
		"owner_id":  ownerUserID,
		"app_name":  appName,
	}).Info("SDK client created")

	return &models.SDKClientCredentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, client, nil
}

// Verify checks a client_id/client_secret pair and, when valid, returns a
// short-lived client token. Unknown, revoked, and wrong-secret clients are
// indistinguishable to the caller.
func (r *Registry) Verify(ctx context.Context, clientID, clientSecret string) (string, time.Time, error) {
	client, err := r.store.GetSDKClient(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return "", time.Time{}, errs.E(errs.InvalidClient, "invalid client credentials")
	}
	if err != nil {
		return "", time.Time{}, mapStoreError(err)
	}
	if client.Revoked || !auth.CheckPassword(clientSecret, client.SecretHash) {
		return "", time.Time{}, errs.E(errs.InvalidClient, "invalid client credentials")
	}

	token, expiresAt, err := auth.GenerateClientJWT(clientID, []string{"sdk"}, r.secret, ClientTokenTTL)
	if err != nil {
		return "", time.Time{}, errs.Wrap(errs.Internal, "failed to sign client token", err)
	}
	return token, expiresAt, nil
}

// List returns the owner's clients, newest first. Secret hashes never
// leave the store model's json:"-" fields.
func (r *Registry) List(ctx context.Context, ownerUserID string) ([]*models.SDKClient, error) {
	clients, err := r.store.ListSDKClients(ctx, ownerUserID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return clients, nil
}

// Revoke permanently disables a client. The row is kept so issued tokens
// and audit references stay resolvable; there is no un-revoke.
func (r *Registry) Revoke(ctx context.Context, clientID, ownerUserID string) error {
	revoked, err := r.store.RevokeSDKClient(ctx, clientID, ownerUserID)
	if err != nil {
		return mapStoreError(err)
	}
	if !revoked {
		return errs.E(errs.InvalidClient, "unknown client")
	}
	r.logger.WithFields(logging.Fields{
		"client_id": clientID,
		"owner_id":  ownerUserID,
	}).Info("SDK client revoked")
	return nil
}

func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return errs.E(errs.InvalidIdentity, "redirect URIs must be absolute http(s) URLs")
	}
	return nil
}

func mapStoreError(err error) error {
	var dup *store.DuplicateError
	if errors.As(err, &dup) {
		return errs.Wrap(errs.Internal, "client id collision", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.Unavailable, "identity store unavailable", err)
	}
	return errs.Wrap(errs.Internal, "identity store error", err)
}
