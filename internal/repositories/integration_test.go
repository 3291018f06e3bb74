package repositories_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"testing"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"
	"authshield/internal/services"
	"authshield/testhelpers"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Exercises the repositories against a real postgres. Skipped unless
// TEST_DATABASE_URL is set.
func setupIntegrationDB(t *testing.T) *testhelpers.TestDB {
	t.Helper()
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	db := testhelpers.SetupTestDB(t, connString)
	t.Cleanup(func() { _ = db.Cleanup() })
	return db
}

func TestIntegration_ClientStoredWithVerifiableSecret(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	verifier := services.NewSecretVerifier([]byte("integration-key"))
	tenantID := testhelpers.SetupTestTenant(t, db)
	created := testhelpers.SetupTestClient(t, db, tenantID, "plain-secret", verifier)

	clientRepo := repositories.NewClientRepo(db.Pool)
	got, err := clientRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, tenantID.String(), got.Tenant.ID)
	assert.True(t, got.Confidential)
	assert.True(t, verifier.Verify(got.SecretHash, "plain-secret"))
	assert.False(t, verifier.Verify(got.SecretHash, "wrong-secret"))

	require.NoError(t, clientRepo.GrantScope(ctx, created.ID, "billing:read"))
	scopes, err := clientRepo.GetScopes(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, scopes, "billing:read")

	require.NoError(t, clientRepo.Delete(ctx, created.ID))
	_, err = clientRepo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestIntegration_UserLookupAndScopes(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	tenantID := testhelpers.SetupTestTenant(t, db)
	email := uuid.NewString() + "@example.com"
	created := testhelpers.SetupTestUser(t, db, tenantID, email, "hunter42!")
	testhelpers.GrantUserScope(t, db, created.ID, "billing:write")

	userRepo := repositories.NewUserRepo(db.Pool)
	got, err := userRepo.GetByEmail(ctx, email)
	require.NoError(t, err)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "active", got.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("hunter42!")))

	scopes, err := userRepo.GetScopes(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, scopes, "billing:write")

	require.NoError(t, userRepo.Delete(ctx, created.ID))
}

func TestIntegration_RefreshTokenRedeemIsSingleUse(t *testing.T) {
	db := setupIntegrationDB(t)
	ctx := context.Background()

	verifier := services.NewSecretVerifier([]byte("integration-key"))
	tenantID := testhelpers.SetupTestTenant(t, db)
	client := testhelpers.SetupTestClient(t, db, tenantID, "plain-secret", verifier)

	sum := sha256.Sum256([]byte("opaque-refresh-token"))
	tokenHash := hex.EncodeToString(sum[:])

	tokenRepo := repositories.NewTokenRepo(db.Pool)
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		TokenHash: tokenHash,
		ClientID:  client.ID,
		TenantID:  tenantID.String(),
		Scopes:    []string{"billing:read"},
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	require.NoError(t, tokenRepo.Create(ctx, token))

	redeemed, err := tokenRepo.Redeem(ctx, tokenHash)
	require.NoError(t, err)
	assert.True(t, redeemed.Revoked)
	assert.Equal(t, []string{"billing:read"}, redeemed.Scopes)

	// The row is revoked now, so a second redemption finds nothing.
	_, err = tokenRepo.Redeem(ctx, tokenHash)
	assert.True(t, errors.Is(err, pgx.ErrNoRows))
}
