package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"

	"github.com/google/uuid"
)

// TokenService owns the refresh-token lifecycle. The opaque value
// handed to the client is never persisted; rows are keyed by its
// SHA-256 hash.
type TokenService interface {
	// Issue mints a new refresh token and returns the stored record
	// together with the opaque value.
	Issue(ctx context.Context, clientID string, userID *string, tenantID string, scopes []string) (*models.RefreshToken, string, error)
	// Lookup resolves an opaque token to its record.
	Lookup(ctx context.Context, token string) (*models.RefreshToken, error)
	// Redeem atomically revokes a live token and returns its record.
	// A second redemption of the same token fails with ErrInvalidGrant.
	Redeem(ctx context.Context, token string) (*models.RefreshToken, error)
	// Revoke is idempotent: revoking an unknown or already revoked
	// token is not an error.
	Revoke(ctx context.Context, token string) error
	// IsRevoked reports true for unknown tokens as well as revoked
	// ones (fail closed).
	IsRevoked(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type tokenService struct {
	tokenRepo    repositories.TokenRepository
	refreshTTL   time.Duration
	storeTimeout time.Duration
}

func NewTokenService(tokenRepo repositories.TokenRepository, refreshTTL, storeTimeout time.Duration) TokenService {
	return &tokenService{
		tokenRepo:    tokenRepo,
		refreshTTL:   refreshTTL,
		storeTimeout: storeTimeout,
	}
}

func (s *tokenService) Issue(ctx context.Context, clientID string, userID *string, tenantID string, scopes []string) (*models.RefreshToken, string, error) {
	opaque := generateOpaqueToken()
	record := &models.RefreshToken{
		ID:        uuid.NewString(),
		TokenHash: hashToken(opaque),
		ClientID:  clientID,
		UserID:    userID,
		TenantID:  tenantID,
		Scopes:    scopes,
		ExpiresAt: time.Now().Add(s.refreshTTL),
		Revoked:   false,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, "", fmt.Errorf("failed to persist refresh token: %w", classifyStoreErr(err))
	}
	return record, opaque, nil
}

func (s *tokenService) Lookup(ctx context.Context, token string) (*models.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	record, err := s.tokenRepo.GetByHash(ctx, hashToken(token))
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return record, nil
}

func (s *tokenService) Redeem(ctx context.Context, token string) (*models.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	record, err := s.tokenRepo.Redeem(ctx, hashToken(token))
	if err != nil {
		classified := classifyStoreErr(err)
		if errors.Is(classified, ErrNotFound) {
			// Unknown, expired or already redeemed; all collapse into
			// the same rejection.
			return nil, ErrInvalidGrant
		}
		return nil, classified
	}
	return record, nil
}

func (s *tokenService) Revoke(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.tokenRepo.Revoke(ctx, hashToken(token)); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *tokenService) IsRevoked(ctx context.Context, token string) (bool, error) {
	record, err := s.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return true, err
	}
	return record.Revoked || time.Now().After(record.ExpiresAt), nil
}

func (s *tokenService) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	purged, err := s.tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, classifyStoreErr(err)
	}
	return purged, nil
}

// generateOpaqueToken returns a 256-bit random token, comfortably over
// the 128-bit entropy floor.
func generateOpaqueToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}

// hashToken derives the storage key for an opaque token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
