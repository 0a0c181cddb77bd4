// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MohamedAshiq09/authentify/internal/store"
	"github.com/MohamedAshiq09/authentify/pkg/models"
)

// MemoryStore is an in-memory store.Store for unit tests. It mirrors the
// Postgres adapter's semantics, including uniqueness conflicts and the
// conditional version bump, so services can be tested without a database.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	lineages map[string]*models.SessionLineage
	tokens   map[string]*models.RefreshToken // keyed by token hash
	clients  map[string]*models.SDKClient

	// FailWith, when set, is returned by every call. Lets tests simulate
	// an unreachable store.
	FailWith error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		lineages: make(map[string]*models.SessionLineage),
		tokens:   make(map[string]*models.RefreshToken),
		clients:  make(map[string]*models.SDKClient),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return &store.DuplicateError{Field: "username"}
		}
		if existing.Email == user.Email {
			return &store.DuplicateError{Field: "email"}
		}
		if user.WalletAddress != "" && existing.WalletAddress == user.WalletAddress {
			return &store.DuplicateError{Field: "wallet_address"}
		}
		if user.SocialIDHash != "" && existing.SocialIDHash == user.SocialIDHash &&
			existing.SocialProvider == user.SocialProvider {
			return &store.DuplicateError{Field: "social identity"}
		}
	}
	copied := *user
	copied.IsActive = true
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.users[user.ID] = &copied
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MemoryStore) GetUserByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, user := range m.users {
		if user.Username == usernameOrEmail || user.Email == usernameOrEmail {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, user := range m.users {
		if user.WalletAddress != "" && user.WalletAddress == walletAddress {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) DisableUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	user, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsActive = false
	return nil
}

func (m *MemoryStore) CreateLineage(ctx context.Context, lineage *models.SessionLineage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	copied := *lineage
	copied.CreatedAt = time.Now()
	m.lineages[lineage.ID] = &copied
	return nil
}

func (m *MemoryStore) AdvanceLineage(ctx context.Context, lineageID string, fromVersion int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	lineage, ok := m.lineages[lineageID]
	if !ok || lineage.Revoked || lineage.CurrentVersion != fromVersion {
		return false, nil
	}
	lineage.CurrentVersion++
	return true, nil
}

func (m *MemoryStore) RevokeLineage(ctx context.Context, lineageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	lineage, ok := m.lineages[lineageID]
	if !ok {
		return store.ErrNotFound
	}
	lineage.Revoked = true
	return nil
}

func (m *MemoryStore) RevokeUserLineages(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for _, lineage := range m.lineages {
		if lineage.UserID == userID {
			lineage.Revoked = true
		}
	}
	return nil
}

func (m *MemoryStore) InsertRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, exists := m.tokens[token.TokenHash]; exists {
		return &store.DuplicateError{Field: "refresh token"}
	}
	copied := *token
	copied.CreatedAt = time.Now()
	m.tokens[token.TokenHash] = &copied
	return nil
}

func (m *MemoryStore) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, *models.SessionLineage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, nil, m.FailWith
	}
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	lineage, ok := m.lineages[token.LineageID]
	if !ok {
		return nil, nil, store.ErrNotFound
	}
	tokenCopy := *token
	lineageCopy := *lineage
	return &tokenCopy, &lineageCopy, nil
}

func (m *MemoryStore) CreateSDKClient(ctx context.Context, client *models.SDKClient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, exists := m.clients[client.ClientID]; exists {
		return &store.DuplicateError{Field: "client_id"}
	}
	copied := *client
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.clients[client.ClientID] = &copied
	return nil
}

func (m *MemoryStore) GetSDKClient(ctx context.Context, clientID string) (*models.SDKClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	client, ok := m.clients[clientID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *client
	return &copied, nil
}

func (m *MemoryStore) ListSDKClients(ctx context.Context, ownerUserID string) ([]*models.SDKClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	var clients []*models.SDKClient
	for _, client := range m.clients {
		if client.OwnerUserID == ownerUserID {
			copied := *client
			clients = append(clients, &copied)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})
	return clients, nil
}

func (m *MemoryStore) RevokeSDKClient(ctx context.Context, clientID, ownerUserID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return false, m.FailWith
	}
	client, ok := m.clients[clientID]
	if !ok || client.OwnerUserID != ownerUserID || client.Revoked {
		return false, nil
	}
	client.Revoked = true
	return true, nil
}

func (m *MemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	var purged int64
	now := time.Now()
	for hash, token := range m.tokens {
		if token.ExpiresAt.Before(now) {
			delete(m.tokens, hash)
			purged++
		}
	}
	return purged, nil
}

// Lineage returns the stored lineage state for assertions
func (m *MemoryStore) Lineage(id string) *models.SessionLineage {
	m.mu.Lock()
	defer m.mu.Unlock()
	lineage, ok := m.lineages[id]
	if !ok {
		return nil
	}
	copied := *lineage
	return &copied
}

var _ store.Store = (*MemoryStore)(nil)
