package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/models"
	"github.com/MohamedAshiq09/authentify/pkg/testutil"
)

var testSecret = []byte("test-secret-for-unit-tests")

func newTestService(cfg Config) (*Service, *testutil.MemoryStore) {
	memStore := testutil.NewMemoryStore()
	if cfg.JWTSecret == nil {
		cfg.JWTSecret = testSecret
	}
	return NewService(memStore, cfg, logging.NewLogger()), memStore
}

func TestIssueAndRefresh(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()
	userID := uuid.New().String()

	pair, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a complete token pair")
	}
	if len(pair.RefreshToken) != auth.RefreshTokenLength {
		t.Fatalf("expected %d-char refresh token, got %d", auth.RefreshTokenLength, len(pair.RefreshToken))
	}

	claims, err := svc.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user %s in claims, got %s", userID, claims.UserID)
	}
	if claims.TokenType != auth.TokenTypeUser {
		t.Fatalf("expected user token, got %s", claims.TokenType)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	// claims of the new access token stay on the same lineage
	nextClaims, err := svc.VerifyAccess(next.AccessToken)
	if err != nil {
		t.Fatalf("rotated access token rejected: %v", err)
	}
	if nextClaims.LineageID != claims.LineageID {
		t.Fatal("refresh must not start a new lineage")
	}
}

func TestRefresh_ReuseRevokesWholeLineage(t *testing.T) {
	svc, memStore := newTestService(Config{})
	ctx := context.Background()

	pair, err := svc.Issue(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// replaying the already-exchanged token trips reuse detection
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	if !errs.Is(err, errs.TokenReuseDetected) {
		t.Fatalf("expected TokenReuseDetected, got %v", err)
	}

	claims, _ := svc.VerifyAccess(next.AccessToken)
	lineage := memStore.Lineage(claims.LineageID)
	if lineage == nil || !lineage.Revoked {
		t.Fatal("expected the lineage to be revoked after reuse")
	}

	// the newest token is burned along with the rest of the lineage
	_, err = svc.Refresh(ctx, next.RefreshToken)
	if !errs.Is(err, errs.InvalidToken) {
		t.Fatalf("expected InvalidToken for the burned lineage, got %v", err)
	}
}

type tokenInsertFailStore struct {
	*testutil.MemoryStore
	lineageID string
}

func (s *tokenInsertFailStore) CreateLineage(ctx context.Context, lineage *models.SessionLineage) error {
	s.lineageID = lineage.ID
	return s.MemoryStore.CreateLineage(ctx, lineage)
}

func (s *tokenInsertFailStore) InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return errors.New("insert failed")
}

func TestIssue_RevokesLineageWhenMintFails(t *testing.T) {
	failStore := &tokenInsertFailStore{MemoryStore: testutil.NewMemoryStore()}
	svc := NewService(failStore, Config{JWTSecret: testSecret}, logging.NewLogger())

	_, err := svc.Issue(context.Background(), uuid.New().String())
	if err == nil {
		t.Fatal("expected issue to fail when the token cannot be stored")
	}

	lineage := failStore.Lineage(failStore.lineageID)
	if lineage == nil || !lineage.Revoked {
		t.Fatal("expected the tokenless lineage to be revoked")
	}
}

func TestRefresh_UnknownToken(t *testing.T) {
	svc, _ := newTestService(Config{})

	_, err := svc.Refresh(context.Background(), "never-issued-token-value-1234567890abcdef")
	if !errs.Is(err, errs.InvalidToken) {
		t.Fatalf("expected InvalidToken, got %v", err)
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _ := newTestService(Config{RefreshTTL: -time.Minute})
	ctx := context.Background()

	pair, err := svc.Issue(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	if !errs.Is(err, errs.Expired) {
		t.Fatalf("expected Expired, got %v", err)
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	svc, _ := newTestService(Config{AccessTTL: -time.Minute})

	pair, err := svc.Issue(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.VerifyAccess(pair.AccessToken)
	if !errs.Is(err, errs.Expired) {
		t.Fatalf("expected Expired, got %v", err)
	}
}

func TestVerifyAccess_Garbage(t *testing.T) {
	svc, _ := newTestService(Config{})

	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.VerifyAccess(tok); !errs.Is(err, errs.InvalidToken) {
			t.Fatalf("expected InvalidToken for %q, got %v", tok, err)
		}
	}
}

func TestRevoke_EndsSessionAndStaysIdempotent(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	pair, err := svc.Issue(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, _ := svc.VerifyAccess(pair.AccessToken)

	if err := svc.Revoke(ctx, claims.LineageID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := svc.Revoke(ctx, claims.LineageID); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	if err := svc.Revoke(ctx, uuid.New().String()); err != nil {
		t.Fatalf("revoking an unknown lineage should be a no-op, got %v", err)
	}

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	if !errs.Is(err, errs.InvalidToken) {
		t.Fatalf("expected InvalidToken after logout, got %v", err)
	}
}

func TestRevokeByRefreshToken(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()

	pair, err := svc.Issue(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.RevokeByRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke by token failed: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errs.Is(err, errs.InvalidToken) {
		t.Fatalf("expected InvalidToken after logout, got %v", err)
	}

	// unknown tokens are silently accepted
	if err := svc.RevokeByRefreshToken(ctx, "never-issued-token-value-1234567890abcdef"); err != nil {
		t.Fatalf("expected no error for an unknown token, got %v", err)
	}
}

func TestRevokeUser_EndsEveryLineage(t *testing.T) {
	svc, _ := newTestService(Config{})
	ctx := context.Background()
	userID := uuid.New().String()

	first, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	second, err := svc.Issue(ctx, userID)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.RevokeUser(ctx, userID); err != nil {
		t.Fatalf("revoke user failed: %v", err)
	}

	for _, pair := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := svc.Refresh(ctx, pair); !errs.Is(err, errs.InvalidToken) {
			t.Fatalf("expected InvalidToken after user-wide revocation, got %v", err)
		}
	}
}

func TestPurgeExpired(t *testing.T) {
	expired, _ := newTestService(Config{RefreshTTL: -time.Minute})
	ctx := context.Background()

	if _, err := expired.Issue(ctx, uuid.New().String()); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	purged, err := expired.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged token, got %d", purged)
	}
}

func TestStoreOutageMapsToUnavailable(t *testing.T) {
	svc, memStore := newTestService(Config{})
	memStore.FailWith = context.DeadlineExceeded

	_, err := svc.Issue(context.Background(), uuid.New().String())
	if !errs.Is(err, errs.Unavailable) {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}
