package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// TestDB holds the database connection for integration tests
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB creates a pooled connection for testing
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			connString = "host=localhost port=5432 user=postgres password=postgres dbname=authshield_test sslmode=disable"
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestTenant creates a tenant row and returns its id
func SetupTestTenant(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	tenantID := uuid.New()
	query := `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now()
	_, err := db.Pool.Exec(context.Background(), query, tenantID, "Test Tenant", "active", now, now)
	if err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}
	return tenantID
}

// SetupTestClient creates a confidential client whose secret is the
// given plaintext, hashed with the given verifier.
func SetupTestClient(t *testing.T, db *TestDB, tenantID uuid.UUID, secret string, verifier services.SecretVerifier) *models.Client {
	t.Helper()

	now := time.Now()
	client := &models.Client{
		ID:           uuid.New().String(),
		Name:         "Test Client",
		RedirectURI:  "https://example.com/callback",
		SecretHash:   verifier.HashSecret(secret),
		Confidential: true,
		Tenant:       models.TenantRef{ID: tenantID.String(), Name: "Test Tenant"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	query := `
		INSERT INTO clients (id, name, redirect_uri, secret_hash, confidential, tenant_id, tenant_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		client.ID, client.Name, client.RedirectURI, client.SecretHash, client.Confidential,
		client.Tenant.ID, client.Tenant.Name, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test client: %v", err)
	}
	return client
}

// SetupTestUser creates an active user with a bcrypt password
func SetupTestUser(t *testing.T, db *TestDB, tenantID uuid.UUID, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Test User",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	query := `
		INSERT INTO users (id, tenant_id, email, password_hash, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = db.Pool.Exec(context.Background(), query,
		user.ID, user.TenantID, user.Email, user.PasswordHash, user.Name, user.Status, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// GrantUserScope attaches a scope to a user
func GrantUserScope(t *testing.T, db *TestDB, userID uuid.UUID, scope string) {
	t.Helper()

	query := `
		INSERT INTO user_scopes (user_id, scope, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	_, err := db.Pool.Exec(context.Background(), query, userID, scope, time.Now())
	if err != nil {
		t.Fatalf("Failed to grant scope: %v", err)
	}
}
