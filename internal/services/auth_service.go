package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authshield/internal/caching"
	"authshield/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims are the JWT claims carried by access tokens.
type TokenClaims struct {
	UserID   string `json:"user_id,omitempty"`
	ClientID string `json:"client_id"`
	TenantID string `json:"tenant_id"`
	Scope    string `json:"scope,omitempty"`
	TokenID  string `json:"token_id"`
	jwt.RegisteredClaims
}

// AccessDecision is the outcome of a per-request authorization check.
// A nil error with Allowed=false is a scope denial; token problems
// surface as ErrTokenInvalid.
type AccessDecision struct {
	Allowed bool
	Claims  *TokenClaims
}

// AuthService is the authorization core: it answers whether a
// client/secret/grant combination is valid and whether a bearer may
// invoke an operation.
type AuthService interface {
	IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error)
	Authorize(ctx context.Context, bearerToken string, requiredScopes []string) (*AccessDecision, error)
	// RevokeToken always succeeds from the caller's perspective unless
	// the store is unreachable.
	RevokeToken(ctx context.Context, token string, tokenTypeHint *string) error
	Introspect(ctx context.Context, token string) (*models.IntrospectionResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

type authService struct {
	clientSvc  ClientService
	userSvc    UserService
	tokenSvc   TokenService
	scopeSvc   ScopeService
	auditSvc   AuditLogsService
	cacheSvc   caching.CacheService
	assertions AssertionVerifier // nil disables the jwt-bearer grant
	jwtSecret  []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
}

func NewAuthService(
	clientSvc ClientService,
	userSvc UserService,
	tokenSvc TokenService,
	scopeSvc ScopeService,
	auditSvc AuditLogsService,
	cacheSvc caching.CacheService,
	assertions AssertionVerifier,
	jwtSecret []byte,
	issuer, audience string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		clientSvc:  clientSvc,
		userSvc:    userSvc,
		tokenSvc:   tokenSvc,
		scopeSvc:   scopeSvc,
		auditSvc:   auditSvc,
		cacheSvc:   cacheSvc,
		assertions: assertions,
		jwtSecret:  jwtSecret,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
	}
}

// IssueToken walks the grant state machine: client validation, then
// user resolution where the grant requires one, then scope narrowing,
// then issuance of the access/refresh pair.
func (s *authService) IssueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	resp, err := s.issueToken(ctx, req)
	if err != nil {
		s.auditSvc.LogTokenRejected(ctx, req.ClientID, req.GrantType, err)
		return nil, err
	}
	return resp, nil
}

func (s *authService) issueToken(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	if req.ClientID == "" {
		return nil, ErrInvalidClient
	}

	client, err := s.clientSvc.ValidateCredentials(ctx, req.ClientID, req.ClientSecret, req.GrantType)
	if err != nil {
		return nil, err
	}

	requested := ParseScopes(req.Scope)

	switch req.GrantType {
	case GrantPassword:
		if req.Username == "" || req.Password == "" {
			return nil, ErrInvalidGrant
		}
		user, err := s.userSvc.Resolve(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		allowed, err := s.userSvc.GetScopes(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return s.mintPair(ctx, client, userIDStr(user.ID), allowed, requested, req.GrantType)

	case GrantClientCredentials:
		if !client.Confidential {
			return nil, ErrInvalidClient
		}
		allowed, err := s.clientSvc.GetScopes(ctx, client.ID)
		if err != nil {
			return nil, err
		}
		return s.mintPair(ctx, client, nil, allowed, requested, req.GrantType)

	case GrantRefreshToken:
		if req.RefreshToken == "" {
			return nil, ErrInvalidGrant
		}
		// Atomic check-and-revoke: a concurrent second redemption of
		// the same token observes it already revoked and is rejected.
		record, err := s.tokenSvc.Redeem(ctx, req.RefreshToken)
		if err != nil {
			return nil, err
		}
		if record.ClientID != client.ID {
			return nil, ErrInvalidGrant
		}
		// Scopes cannot widen across a rotation.
		return s.mintPair(ctx, client, record.UserID, record.Scopes, requested, req.GrantType)

	case GrantJWTBearer:
		if s.assertions == nil {
			return nil, ErrUnsupportedGrantType
		}
		if req.Assertion == "" {
			return nil, ErrInvalidGrant
		}
		subject, err := s.assertions.Verify(req.Assertion)
		if err != nil {
			return nil, err
		}
		user, err := s.userSvc.ResolveSubject(ctx, subject)
		if err != nil {
			return nil, err
		}
		allowed, err := s.userSvc.GetScopes(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return s.mintPair(ctx, client, userIDStr(user.ID), allowed, requested, req.GrantType)

	default:
		return nil, ErrUnsupportedGrantType
	}
}

// mintPair narrows scopes, issues the refresh token and signs the
// access token. Requested scopes must be a subset of allowed; an empty
// request inherits the full allowed set.
func (s *authService) mintPair(ctx context.Context, client *models.Client, userID *string, allowed, requested []string, grantType string) (*models.TokenResponse, error) {
	granted := allowed
	if len(requested) > 0 {
		if !s.scopeSvc.Authorize(allowed, requested) {
			return nil, ErrInvalidScope
		}
		granted = requested
	}

	record, refreshToken, err := s.tokenSvc.Issue(ctx, client.ID, userID, client.Tenant.ID, granted)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tokenID := uuid.NewString()
	subject := client.ID
	if userID != nil {
		subject = *userID
	}

	claims := TokenClaims{
		ClientID: client.ID,
		TenantID: client.Tenant.ID,
		Scope:    JoinScopes(granted),
		TokenID:  tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}
	if userID != nil {
		claims.UserID = *userID
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	s.auditSvc.LogTokenIssued(ctx, client.Tenant.ID, client.ID, userID, grantType, granted)

	return &models.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: refreshToken,
		Scope:        JoinScopes(record.Scopes),
		IssuedAt:     now,
	}, nil
}

// ValidateToken parses and verifies an access token, including the
// revocation blacklist.
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	blacklisted, err := s.cacheSvc.IsTokenBlacklisted(ctx, claims.TokenID)
	if err != nil {
		// Blacklist unreachable: fail closed, but as an infrastructure
		// condition rather than an authentication failure.
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if blacklisted {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Authorize answers the per-request question: may this bearer invoke
// an operation requiring these scopes. It never issues tokens.
func (s *authService) Authorize(ctx context.Context, bearerToken string, requiredScopes []string) (*AccessDecision, error) {
	claims, err := s.ValidateToken(ctx, bearerToken)
	if err != nil {
		return nil, err
	}

	granted := ParseScopes(claims.Scope)
	if !s.scopeSvc.Authorize(granted, requiredScopes) {
		s.auditSvc.LogAccessDenied(ctx, claims.TenantID, claims.ClientID, claims.UserID, requiredScopes)
		return &AccessDecision{Allowed: false, Claims: claims}, nil
	}
	return &AccessDecision{Allowed: true, Claims: claims}, nil
}

func (s *authService) RevokeToken(ctx context.Context, token string, tokenTypeHint *string) error {
	if tokenTypeHint != nil && *tokenTypeHint == "refresh_token" {
		return s.revokeRefresh(ctx, token)
	}

	// Without a hint, try the access-token path first and fall back to
	// refresh-token revocation. Unknown tokens are not an error.
	if claims, err := s.ValidateToken(ctx, token); err == nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := s.cacheSvc.BlacklistToken(ctx, claims.TokenID, ttl); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		s.auditSvc.LogTokenRevoked(ctx, claims.TenantID, claims.ClientID, claims.TokenID)
		return nil
	}
	return s.revokeRefresh(ctx, token)
}

func (s *authService) revokeRefresh(ctx context.Context, token string) error {
	if err := s.tokenSvc.Revoke(ctx, token); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
	}
	return nil
}

func (s *authService) Introspect(ctx context.Context, token string) (*models.IntrospectionResponse, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return &models.IntrospectionResponse{Active: false}, nil
	}

	return &models.IntrospectionResponse{
		Active:    true,
		Scope:     claims.Scope,
		ClientID:  claims.ClientID,
		Subject:   claims.Subject,
		TenantID:  claims.TenantID,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Unix(),
		IssuedAt:  claims.IssuedAt.Unix(),
	}, nil
}

func userIDStr(id uuid.UUID) *string {
	s := id.String()
	return &s
}
