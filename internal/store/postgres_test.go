package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

func newTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewPostgresStore(db, logging.NewLogger()), mock, func() { db.Close() }
}

func TestCreateUser_PasswordAccount(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authentify.users").
		WithArgs(user.ID, user.Username, user.Email, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_ContractAccountWritesWalletLink(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	user := &models.User{
		ID:            uuid.New().String(),
		Username:      "bob",
		Email:         "bob@example.com",
		WalletAddress: "7EYnhQoR9YM3N7UoaKRoA44Uy8JeaZV3qyouov87awMs",
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authentify.users").
		WithArgs(user.ID, user.Username, user.Email, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO authentify.wallet_links").
		WithArgs(user.WalletAddress, user.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO authentify.users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})
	mock.ExpectRollback()

	err := s.CreateUser(context.Background(), &models.User{
		ID: uuid.New().String(), Username: "alice", Email: "a@example.com", PasswordHash: "h",
	})
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.Field != "username" {
		t.Fatalf("expected username conflict, got %q", dup.Field)
	}
}

func TestGetUserByLogin_NotFound(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM authentify.users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUserByLogin(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByWallet(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	userID := uuid.New().String()
	wallet := "7EYnhQoR9YM3N7UoaKRoA44Uy8JeaZV3qyouov87awMs"
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "wallet_address",
		"social_id_hash", "social_provider", "is_active", "created_at", "updated_at",
	}).AddRow(userID, "bob", "bob@example.com", "", wallet, "", "", true, now, now)

	mock.ExpectQuery("SELECT (.+) FROM authentify.users WHERE wallet_address").
		WithArgs(wallet).
		WillReturnRows(rows)

	user, err := s.GetUserByWallet(context.Background(), wallet)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !user.IsContract() {
		t.Fatal("expected contract account")
	}
	if user.ID != userID {
		t.Fatalf("expected user %s, got %s", userID, user.ID)
	}
}

func TestAdvanceLineage_WinnerAndLoser(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	lineageID := uuid.New().String()

	mock.ExpectExec("UPDATE authentify.session_lineages").
		WithArgs(lineageID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE authentify.session_lineages").
		WithArgs(lineageID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := s.AdvanceLineage(context.Background(), lineageID, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !won {
		t.Fatal("expected first caller to win the version bump")
	}

	won, err = s.AdvanceLineage(context.Background(), lineageID, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if won {
		t.Fatal("expected second caller with the same version to lose")
	}
}

func TestGetRefreshToken_JoinsLineage(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	lineageID := uuid.New().String()
	userID := uuid.New().String()
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "lineage_id", "user_id", "token_hash", "version", "expires_at", "created_at",
		"l_id", "l_user_id", "current_version", "revoked", "l_created_at",
	}).AddRow(
		uuid.New().String(), lineageID, userID, "hash", int64(2), now.Add(time.Hour), now,
		lineageID, userID, int64(5), false, now,
	)

	mock.ExpectQuery("SELECT t.id, t.lineage_id").
		WithArgs("hash").
		WillReturnRows(rows)

	token, lineage, err := s.GetRefreshToken(context.Background(), "hash")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token.Version != 2 || lineage.CurrentVersion != 5 {
		t.Fatalf("expected version 2 against lineage 5, got %d/%d", token.Version, lineage.CurrentVersion)
	}
}

func TestRevokeSDKClient_OwnershipMismatch(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	mock.ExpectExec("UPDATE authentify.sdk_clients").
		WithArgs("ak_abc", "other-user").
		WillReturnResult(sqlmock.NewResult(0, 0))

	revoked, err := s.RevokeSDKClient(context.Background(), "ak_abc", "other-user")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if revoked {
		t.Fatal("expected revocation to be refused for non-owner")
	}
}

func TestPurgeExpired(t *testing.T) {
	s, mock, done := newTestStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM authentify.refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := s.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 purged tokens, got %d", n)
	}
}
