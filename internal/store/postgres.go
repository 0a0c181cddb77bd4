package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

const queryTimeout = 5 * time.Second

// uniqueViolation is the Postgres error code for unique-index conflicts
const uniqueViolation = "23505"

// duplicateFields maps unique constraint names to the field reported back
// to callers
var duplicateFields = map[string]string{
	"users_username_key":        "username",
	"users_email_key":           "email",
	"users_wallet_address_key":  "wallet_address",
	"users_social_identity_key": "social identity",
	"wallet_links_pkey":         "wallet_address",
	"refresh_tokens_hash_key":   "refresh token",
	"sdk_clients_pkey":          "client_id",
}

// PostgresStore implements Store over a Postgres connection pool
type PostgresStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewPostgresStore creates a Postgres-backed identity store
func NewPostgresStore(db *sql.DB, logger logging.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		field, ok := duplicateFields[pqErr.Constraint]
		if !ok {
			field = "identity"
		}
		return &DuplicateError{Field: field}
	}
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateUser inserts the user row and, for contract accounts, the wallet
// link in one transaction. Uniqueness conflicts surface as DuplicateError.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO authentify.users (id, username, email, password_hash, wallet_address, social_id_hash, social_provider, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())`,
		user.ID, user.Username, user.Email,
		nullable(user.PasswordHash), nullable(user.WalletAddress),
		nullable(user.SocialIDHash), nullable(user.SocialProvider))
	if err != nil {
		return mapError(err)
	}

	if user.WalletAddress != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO authentify.wallet_links (wallet_address, user_id, social_id_hash, linked_at)
			VALUES ($1, $2, $3, NOW())`,
			user.WalletAddress, user.ID, nullable(user.SocialIDHash))
		if err != nil {
			return mapError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

const userColumns = `id, username, email, COALESCE(password_hash, ''), COALESCE(wallet_address, ''), COALESCE(social_id_hash, ''), COALESCE(social_provider, ''), is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.WalletAddress, &user.SocialIDHash, &user.SocialProvider,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM authentify.users WHERE id = $1`, id))
}

// GetUserByLogin resolves a login handle, matching username first and
// falling back to email
func (s *PostgresStore) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM authentify.users WHERE username = $1 OR email = $1`, usernameOrEmail))
}

func (s *PostgresStore) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM authentify.users WHERE wallet_address = $1`, walletAddress))
}

func (s *PostgresStore) DisableUser(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		`UPDATE authentify.users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateLineage(ctx context.Context, lineage *models.SessionLineage) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authentify.session_lineages (id, user_id, current_version, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, FALSE, NOW(), NOW())`,
		lineage.ID, lineage.UserID, lineage.CurrentVersion)
	return mapError(err)
}

// AdvanceLineage bumps the lineage version only if it still sits at
// fromVersion and is not revoked. The conditional update is the arbiter
// for concurrent refreshes: exactly one caller per version observes true.
func (s *PostgresStore) AdvanceLineage(ctx context.Context, lineageID string, fromVersion int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		UPDATE authentify.session_lineages
		SET current_version = current_version + 1, updated_at = NOW()
		WHERE id = $1 AND current_version = $2 AND NOT revoked`,
		lineageID, fromVersion)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) RevokeLineage(ctx context.Context, lineageID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		UPDATE authentify.session_lineages SET revoked = TRUE, updated_at = NOW() WHERE id = $1`,
		lineageID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RevokeUserLineages(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		UPDATE authentify.session_lineages SET revoked = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND NOT revoked`,
		userID)
	return err
}

func (s *PostgresStore) InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authentify.refresh_tokens (id, lineage_id, user_id, token_hash, version, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		token.ID, token.LineageID, token.UserID, token.TokenHash, token.Version, token.ExpiresAt)
	return mapError(err)
}

// GetRefreshToken looks up a refresh token by its hash together with the
// lineage it belongs to, so the caller can compare versions atomically
// read in one statement.
func (s *PostgresStore) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, *models.SessionLineage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var token models.RefreshToken
	var lineage models.SessionLineage
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.lineage_id, t.user_id, t.token_hash, t.version, t.expires_at, t.created_at,
		       l.id, l.user_id, l.current_version, l.revoked, l.created_at
		FROM authentify.refresh_tokens t
		JOIN authentify.session_lineages l ON l.id = t.lineage_id
		WHERE t.token_hash = $1`,
		tokenHash).Scan(
		&token.ID, &token.LineageID, &token.UserID, &token.TokenHash, &token.Version, &token.ExpiresAt, &token.CreatedAt,
		&lineage.ID, &lineage.UserID, &lineage.CurrentVersion, &lineage.Revoked, &lineage.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &token, &lineage, nil
}

func (s *PostgresStore) CreateSDKClient(ctx context.Context, client *models.SDKClient) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authentify.sdk_clients (client_id, secret_hash, owner_user_id, app_name, app_url, redirect_uris, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())`,
		client.ClientID, client.SecretHash, client.OwnerUserID,
		client.AppName, client.AppURL, pq.Array(client.RedirectURIs))
	return mapError(err)
}

const clientColumns = `client_id, secret_hash, owner_user_id, app_name, app_url, redirect_uris, revoked, created_at, updated_at`

func (s *PostgresStore) GetSDKClient(ctx context.Context, clientID string) (*models.SDKClient, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var client models.SDKClient
	err := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM authentify.sdk_clients WHERE client_id = $1`,
		clientID).Scan(
		&client.ClientID, &client.SecretHash, &client.OwnerUserID,
		&client.AppName, &client.AppURL, pq.Array(&client.RedirectURIs),
		&client.Revoked, &client.CreatedAt, &client.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *PostgresStore) ListSDKClients(ctx context.Context, ownerUserID string) ([]*models.SDKClient, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM authentify.sdk_clients WHERE owner_user_id = $1 ORDER BY created_at DESC`,
		ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.SDKClient
	for rows.Next() {
		var client models.SDKClient
		if err := rows.Scan(
			&client.ClientID, &client.SecretHash, &client.OwnerUserID,
			&client.AppName, &client.AppURL, pq.Array(&client.RedirectURIs),
			&client.Revoked, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, &client)
	}
	return clients, rows.Err()
}

// RevokeSDKClient marks the client revoked if it is owned by ownerUserID.
// Returns false when no matching active client exists; ownership mismatch
// and absence are indistinguishable to the caller.
func (s *PostgresStore) RevokeSDKClient(ctx context.Context, clientID, ownerUserID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		UPDATE authentify.sdk_clients SET revoked = TRUE, updated_at = NOW()
		WHERE client_id = $1 AND owner_user_id = $2 AND NOT revoked`,
		clientID, ownerUserID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// PurgeExpired deletes refresh tokens past their expiry. Lineages are kept;
// a lineage with no live tokens simply can never be advanced again.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM authentify.refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
