package services

import (
	"context"
	"time"

	"authshield/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Shared testify mocks for the repository and cache interfaces the
// services depend on.

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientRepository) GetScopes(ctx context.Context, clientID string) ([]string, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockClientRepository) GrantScope(ctx context.Context, clientID, scope string) error {
	args := m.Called(ctx, clientID, scope)
	return args.Error(0)
}

func (m *MockClientRepository) RevokeScope(ctx context.Context, clientID, scope string) error {
	args := m.Called(ctx, clientID, scope)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) GetScopes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) GrantScope(ctx context.Context, userID uuid.UUID, scope string) error {
	args := m.Called(ctx, userID, scope)
	return args.Error(0)
}

func (m *MockUserRepository) RevokeScope(ctx context.Context, userID uuid.UUID, scope string) error {
	args := m.Called(ctx, userID, scope)
	return args.Error(0)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenRepository) Redeem(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockScopeRepository struct {
	mock.Mock
}

func (m *MockScopeRepository) Create(ctx context.Context, scope *models.Scope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockScopeRepository) GetByName(ctx context.Context, name string) (*models.Scope, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scope), args.Error(1)
}

func (m *MockScopeRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockScopeRepository) List(ctx context.Context, limit, offset int) ([]*models.Scope, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Scope), args.Error(1)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, tenantID string, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, tenantID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheService is an in-memory stand-in for Redis. Reads and
// writes are recorded in maps rather than asserted as expectations so
// tests focus on service behavior.
type MockCacheService struct {
	clients     map[string]*models.Client
	blacklisted map[string]bool
	strings     map[string]string
	RateLimited bool
	FailReads   error
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		clients:     make(map[string]*models.Client),
		blacklisted: make(map[string]bool),
		strings:     make(map[string]string),
	}
}

func (m *MockCacheService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	cached, ok := m.clients[clientID]
	if !ok {
		return nil, nil
	}
	// Hand back a distinct record, as the real cache does after a
	// redis round trip.
	copied := *cached
	return &copied, nil
}

func (m *MockCacheService) SetClient(ctx context.Context, client *models.Client, ttl time.Duration) error {
	copied := *client
	m.clients[client.ID] = &copied
	return nil
}

func (m *MockCacheService) DeleteClient(ctx context.Context, clientID string) error {
	delete(m.clients, clientID)
	return nil
}

func (m *MockCacheService) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	m.blacklisted[tokenID] = true
	return nil
}

func (m *MockCacheService) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if m.FailReads != nil {
		return false, m.FailReads
	}
	return m.blacklisted[tokenID], nil
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.RateLimited, nil
}

func (m *MockCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	m.strings[key] = value
	return nil
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	return m.strings[key], nil
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	delete(m.strings, key)
	return nil
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return nil
}
