package services

import (
	"context"
	"testing"
	"time"

	"authshield/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	clientRepo *MockClientRepository
	userRepo   *MockUserRepository
	tokenRepo  *MockTokenRepository
	auditRepo  *MockAuditLogsRepository
	cacheSvc   *MockCacheService
	verifier   SecretVerifier
	service    AuthService
	ctx        context.Context

	client *models.Client
	user   *models.User
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.clientRepo = &MockClientRepository{}
	suite.userRepo = &MockUserRepository{}
	suite.tokenRepo = &MockTokenRepository{}
	suite.auditRepo = &MockAuditLogsRepository{}
	suite.cacheSvc = NewMockCacheService()
	suite.verifier = NewSecretVerifier([]byte("test-key"))
	suite.ctx = context.Background()

	clientSvc := NewClientService(suite.clientRepo, suite.verifier, suite.cacheSvc, time.Second)
	userSvc := NewUserService(suite.userRepo, time.Second)
	tokenSvc := NewTokenService(suite.tokenRepo, 24*time.Hour, time.Second)
	scopeSvc := NewScopeService(nil, time.Second)
	auditSvc := NewAuditLogsService(suite.auditRepo, time.Second)

	suite.service = NewAuthService(
		clientSvc, userSvc, tokenSvc, scopeSvc, auditSvc, suite.cacheSvc,
		nil, []byte("jwt-signing-secret"), "authshield-test", "authshield-test", time.Hour,
	)

	suite.client = &models.Client{
		ID:           "client-1",
		Name:         "Test Client",
		SecretHash:   suite.verifier.HashSecret("client-secret"),
		Confidential: true,
		Tenant:       models.TenantRef{ID: "tenant-1", Name: "Tenant One"},
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("user-password"), bcrypt.MinCost)
	suite.user = &models.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Status:       "active",
	}

	// Audit writes are best effort and always accepted
	suite.auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (suite *AuthServiceTestSuite) passwordRequest(scope string) *models.TokenRequest {
	return &models.TokenRequest{
		GrantType:    GrantPassword,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		Username:     "alice@example.com",
		Password:     "user-password",
		Scope:        scope,
	}
}

func (suite *AuthServiceTestSuite) expectPasswordGrant(userScopes []string) {
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.userRepo.On("GetByEmail", mock.Anything, "alice@example.com").Return(suite.user, nil)
	suite.userRepo.On("GetScopes", mock.Anything, suite.user.ID).Return(userScopes, nil)
	suite.tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
}

func (suite *AuthServiceTestSuite) TestPasswordGrant_Success() {
	suite.expectPasswordGrant([]string{"oauth:user:create", "oauth:user:read"})

	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest("oauth:user:read"))

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)
	assert.Equal(suite.T(), 3600, resp.ExpiresIn)
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.NotEmpty(suite.T(), resp.RefreshToken)

	claims, err := suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "client-1", claims.ClientID)
	assert.Equal(suite.T(), "tenant-1", claims.TenantID)
	assert.Equal(suite.T(), suite.user.ID.String(), claims.Subject)
	assert.Equal(suite.T(), "oauth:user:read", claims.Scope)
}

func (suite *AuthServiceTestSuite) TestPasswordGrant_EmptyScopeInheritsAll() {
	suite.expectPasswordGrant([]string{"oauth:user:read", "oauth:user:create"})

	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest(""))

	assert.NoError(suite.T(), err)
	claims, err := suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.ElementsMatch(suite.T(), []string{"oauth:user:read", "oauth:user:create"}, ParseScopes(claims.Scope))
}

func (suite *AuthServiceTestSuite) TestPasswordGrant_ScopeExceedsGranted() {
	suite.expectPasswordGrant([]string{"oauth:user:read"})

	_, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest("oauth:user:read oauth:user:delete"))

	assert.ErrorIs(suite.T(), err, ErrInvalidScope)
}

func (suite *AuthServiceTestSuite) TestPasswordGrant_WrongClientSecret() {
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)

	req := suite.passwordRequest("")
	req.ClientSecret = "wrong"
	_, err := suite.service.IssueToken(suite.ctx, req)

	assert.ErrorIs(suite.T(), err, ErrInvalidClient)
	// Client rejection happens before any user lookup
	suite.userRepo.AssertNotCalled(suite.T(), "GetByEmail")
}

func (suite *AuthServiceTestSuite) TestClientCredentialsGrant_Success() {
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.clientRepo.On("GetScopes", mock.Anything, "client-1").Return([]string{"oauth:audit:read"}, nil)
	suite.tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    GrantClientCredentials,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
	})

	assert.NoError(suite.T(), err)
	claims, err := suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	// No resource owner: the client is its own subject
	assert.Equal(suite.T(), "client-1", claims.Subject)
	assert.Empty(suite.T(), claims.UserID)
}

func (suite *AuthServiceTestSuite) TestClientCredentialsGrant_PublicClientRejected() {
	public := &models.Client{ID: "public-1", Confidential: false, Tenant: models.TenantRef{ID: "tenant-1"}}
	suite.clientRepo.On("GetByID", mock.Anything, "public-1").Return(public, nil)

	_, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType: GrantClientCredentials,
		ClientID:  "public-1",
	})

	assert.ErrorIs(suite.T(), err, ErrInvalidClient)
}

func (suite *AuthServiceTestSuite) TestUnsupportedGrantType() {
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)

	_, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     "client-1",
		ClientSecret: "client-secret",
	})

	assert.ErrorIs(suite.T(), err, ErrUnsupportedGrantType)
}

func (suite *AuthServiceTestSuite) TestJWTBearerGrant_DisabledWithoutVerifier() {
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)

	_, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    GrantJWTBearer,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		Assertion:    "some.jwt.assertion",
	})

	assert.ErrorIs(suite.T(), err, ErrUnsupportedGrantType)
}

func (suite *AuthServiceTestSuite) TestRefreshGrant_RotatesAndKeepsScopes() {
	userID := suite.user.ID.String()
	record := &models.RefreshToken{
		ID:       "rt-1",
		ClientID: "client-1",
		UserID:   &userID,
		TenantID: "tenant-1",
		Scopes:   []string{"oauth:user:read"},
	}
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.tokenRepo.On("Redeem", mock.Anything, mock.AnythingOfType("string")).Return(record, nil)
	suite.tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    GrantRefreshToken,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		RefreshToken: "old-opaque-token",
	})

	assert.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "old-opaque-token", resp.RefreshToken)
	claims, err := suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "oauth:user:read", claims.Scope)
	assert.Equal(suite.T(), userID, claims.UserID)
}

func (suite *AuthServiceTestSuite) TestRefreshGrant_CannotWidenScopes() {
	record := &models.RefreshToken{
		ID:       "rt-1",
		ClientID: "client-1",
		TenantID: "tenant-1",
		Scopes:   []string{"oauth:user:read"},
	}
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.tokenRepo.On("Redeem", mock.Anything, mock.AnythingOfType("string")).Return(record, nil)

	_, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    GrantRefreshToken,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		RefreshToken: "old-opaque-token",
		Scope:        "oauth:user:read oauth:user:delete",
	})

	assert.ErrorIs(suite.T(), err, ErrInvalidScope)
	// The failed rotation must not have minted a replacement
	suite.tokenRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *AuthServiceTestSuite) TestRefreshGrant_SecondRedemptionRejected() {
	record := &models.RefreshToken{ID: "rt-1", ClientID: "client-1", TenantID: "tenant-1", Scopes: []string{"oauth:user:read"}}
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.tokenRepo.On("Redeem", mock.Anything, mock.AnythingOfType("string")).Return(record, nil).Once()
	suite.tokenRepo.On("Redeem", mock.Anything, mock.AnythingOfType("string")).Return(nil, pgx.ErrNoRows).Once()
	suite.tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := &models.TokenRequest{
		GrantType:    GrantRefreshToken,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		RefreshToken: "old-opaque-token",
	}

	_, err := suite.service.IssueToken(suite.ctx, req)
	assert.NoError(suite.T(), err)

	_, err = suite.service.IssueToken(suite.ctx, req)
	assert.ErrorIs(suite.T(), err, ErrInvalidGrant)
}

func (suite *AuthServiceTestSuite) TestRefreshGrant_CrossClientRejected() {
	record := &models.RefreshToken{ID: "rt-1", ClientID: "someone-else", TenantID: "tenant-1"}
	suite.clientRepo.On("GetByID", mock.Anything, "client-1").Return(suite.client, nil)
	suite.tokenRepo.On("Redeem", mock.Anything, mock.AnythingOfType("string")).Return(record, nil)

	_, err := suite.service.IssueToken(suite.ctx, &models.TokenRequest{
		GrantType:    GrantRefreshToken,
		ClientID:     "client-1",
		ClientSecret: "client-secret",
		RefreshToken: "stolen-token",
	})

	assert.ErrorIs(suite.T(), err, ErrInvalidGrant)
}

func (suite *AuthServiceTestSuite) TestAuthorize_ScopeGate() {
	suite.expectPasswordGrant([]string{"oauth:user:create"})
	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest("oauth:user:create"))
	assert.NoError(suite.T(), err)

	allowed, err := suite.service.Authorize(suite.ctx, resp.AccessToken, []string{"oauth:user:create"})
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), allowed.Allowed)

	denied, err := suite.service.Authorize(suite.ctx, resp.AccessToken, []string{"oauth:user:delete"})
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), denied.Allowed)
}

func (suite *AuthServiceTestSuite) TestRevokeToken_AccessTokenBlacklisted() {
	suite.expectPasswordGrant([]string{"oauth:user:read"})
	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest(""))
	assert.NoError(suite.T(), err)

	assert.NoError(suite.T(), suite.service.RevokeToken(suite.ctx, resp.AccessToken, nil))

	_, err = suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.ErrorIs(suite.T(), err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestRevokeToken_UnknownTokenIsNoError() {
	suite.tokenRepo.On("Revoke", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	assert.NoError(suite.T(), suite.service.RevokeToken(suite.ctx, "garbage-token", nil))
}

func (suite *AuthServiceTestSuite) TestValidateToken_Garbage() {
	_, err := suite.service.ValidateToken(suite.ctx, "not-a-jwt")
	assert.ErrorIs(suite.T(), err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestValidateToken_WrongSigningKey() {
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-key"))
	assert.NoError(suite.T(), err)

	_, err = suite.service.ValidateToken(suite.ctx, forged)
	assert.ErrorIs(suite.T(), err, ErrTokenInvalid)
}

func (suite *AuthServiceTestSuite) TestValidateToken_BlacklistOutageFailsClosed() {
	suite.expectPasswordGrant([]string{"oauth:user:read"})
	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest(""))
	assert.NoError(suite.T(), err)

	suite.cacheSvc.FailReads = assert.AnError

	_, err = suite.service.ValidateToken(suite.ctx, resp.AccessToken)
	assert.ErrorIs(suite.T(), err, ErrStoreUnavailable)
}

func (suite *AuthServiceTestSuite) TestIntrospect_ActiveAndInactive() {
	suite.expectPasswordGrant([]string{"oauth:user:read"})
	resp, err := suite.service.IssueToken(suite.ctx, suite.passwordRequest(""))
	assert.NoError(suite.T(), err)

	active, err := suite.service.Introspect(suite.ctx, resp.AccessToken)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), active.Active)
	assert.Equal(suite.T(), "client-1", active.ClientID)

	inactive, err := suite.service.Introspect(suite.ctx, "garbage-token")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), inactive.Active)
	assert.Empty(suite.T(), inactive.Scope)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
