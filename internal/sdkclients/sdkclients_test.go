package sdkclients

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MohamedAshiq09/authentify/pkg/auth"
	"github.com/MohamedAshiq09/authentify/pkg/errs"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
	"github.com/MohamedAshiq09/authentify/pkg/testutil"
)

var testSecret = []byte("test-secret-for-unit-tests")

func newTestRegistry() (*Registry, *testutil.MemoryStore) {
	memStore := testutil.NewMemoryStore()
	return NewRegistry(memStore, testSecret, logging.NewLogger()), memStore
}

func TestCreateAndVerify(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()
	ownerID := uuid.New().String()

	creds, client, err := registry.Create(ctx, ownerID, "My App", "https://example.com", []string{"https://example.com/callback"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(creds.ClientID, ClientIDPrefix) {
		t.Fatalf("expected %s-prefixed client id, got %s", ClientIDPrefix, creds.ClientID)
	}
	if client.SecretHash == creds.ClientSecret {
		t.Fatal("secret stored in plaintext")
	}
	if !auth.CheckPassword(creds.ClientSecret, client.SecretHash) {
		t.Fatal("stored hash does not verify the issued secret")
	}

	token, expiresAt, err := registry.Verify(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expected a bounded token expiry")
	}

	claims, err := auth.ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("client token rejected: %v", err)
	}
	if claims.TokenType != auth.TokenTypeClient {
		t.Fatalf("expected client token type, got %s", claims.TokenType)
	}
	if claims.UserID != "" {
		t.Fatal("client token must not carry a user identity")
	}
	if claims.ClientID != creds.ClientID {
		t.Fatalf("expected client %s in claims, got %s", creds.ClientID, claims.ClientID)
	}
}

func TestVerify_FailuresAreIndistinguishable(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()
	ownerID := uuid.New().String()

	creds, _, err := registry.Create(ctx, ownerID, "My App", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	tests := []struct {
		name     string
		clientID string
		secret   string
	}{
		{"unknown client", "ak_deadbeefdeadbeefdeadbeefdeadbeef", "whatever"},
		{"wrong secret", creds.ClientID, "not-the-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := registry.Verify(ctx, tt.clientID, tt.secret)
			if !errs.Is(err, errs.InvalidClient) {
				t.Fatalf("expected InvalidClient, got %v", err)
			}
		})
	}
}

func TestVerify_RevokedClientFailsWithCorrectSecret(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()
	ownerID := uuid.New().String()

	creds, _, err := registry.Create(ctx, ownerID, "My App", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := registry.Revoke(ctx, creds.ClientID, ownerID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	_, _, err = registry.Verify(ctx, creds.ClientID, creds.ClientSecret)
	if !errs.Is(err, errs.InvalidClient) {
		t.Fatalf("expected InvalidClient after revocation, got %v", err)
	}

	// the row survives revocation for auditability
	clients, err := registry.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(clients) != 1 || !clients[0].Revoked {
		t.Fatal("expected one revoked client on record")
	}
}

func TestRevoke_RequiresOwnership(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()

	creds, _, err := registry.Create(ctx, uuid.New().String(), "My App", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = registry.Revoke(ctx, creds.ClientID, uuid.New().String())
	if !errs.Is(err, errs.InvalidClient) {
		t.Fatalf("expected InvalidClient for non-owner, got %v", err)
	}
}

func TestCreate_RejectsBadInput(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()
	ownerID := uuid.New().String()

	tests := []struct {
		name         string
		appName      string
		redirectURIs []string
	}{
		{"empty app name", "   ", nil},
		{"overlong app name", strings.Repeat("a", 200), nil},
		{"relative redirect", "My App", []string{"/callback"}},
		{"bad scheme redirect", "My App", []string{"ftp://example.com/cb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := registry.Create(ctx, ownerID, tt.appName, "", tt.redirectURIs)
			if !errs.Is(err, errs.InvalidIdentity) {
				t.Fatalf("expected InvalidIdentity, got %v", err)
			}
		})
	}
}

func TestSecretsDifferAcrossClients(t *testing.T) {
	registry, _ := newTestRegistry()
	ctx := context.Background()
	ownerID := uuid.New().String()

	first, _, err := registry.Create(ctx, ownerID, "App One", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, _, err := registry.Create(ctx, ownerID, "App Two", "", nil)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ClientID == second.ClientID || first.ClientSecret == second.ClientSecret {
		t.Fatal("expected unique credentials per client")
	}
}
