package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"authshield/internal/caching"
	"authshield/internal/models"
	"authshield/internal/repositories"

	"github.com/google/uuid"
)

// Grant types understood by the token endpoint.
const (
	GrantPassword          = "password"
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
	GrantJWTBearer         = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

const clientCacheTTL = 5 * time.Minute

// dummySecretHash keeps the verify cost identical when the client
// record is absent, so response timing does not reveal whether the
// client id exists.
const dummySecretHash = "0000000000000000000000000000000000000000000000000000000000000000"

type ClientService interface {
	// FindClient resolves a client id to its record. Pure read.
	FindClient(ctx context.Context, clientID string) (*models.Client, error)
	// ValidateCredentials authenticates a client for the given grant
	// type. Unknown client and wrong secret both return
	// ErrInvalidClient. Public clients pass on identity alone for
	// grant types that permit it, and only when the stored record is
	// explicitly non-confidential.
	ValidateCredentials(ctx context.Context, clientID, clientSecret, grantType string) (*models.Client, error)
	GetScopes(ctx context.Context, clientID string) ([]string, error)

	Create(ctx context.Context, req *models.CreateClientRequest) (*models.CreateClientResponse, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Client, error)
	Delete(ctx context.Context, clientID string) error
	GrantScope(ctx context.Context, clientID, scope string) error
	RevokeScope(ctx context.Context, clientID, scope string) error
}

type clientService struct {
	clientRepo   repositories.ClientRepository
	verifier     SecretVerifier
	cacheSvc     caching.CacheService
	storeTimeout time.Duration
}

func NewClientService(clientRepo repositories.ClientRepository, verifier SecretVerifier, cacheSvc caching.CacheService, storeTimeout time.Duration) ClientService {
	return &clientService{
		clientRepo:   clientRepo,
		verifier:     verifier,
		cacheSvc:     cacheSvc,
		storeTimeout: storeTimeout,
	}
}

func (s *clientService) FindClient(ctx context.Context, clientID string) (*models.Client, error) {
	if cached, err := s.cacheSvc.GetClient(ctx, clientID); err == nil && cached != nil {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}

	// Cache fill is best effort; the cached copy carries the secret
	// hash but lives only inside the trust boundary.
	_ = s.cacheSvc.SetClient(ctx, client, clientCacheTTL)
	return client, nil
}

func (s *clientService) ValidateCredentials(ctx context.Context, clientID, clientSecret, grantType string) (*models.Client, error) {
	client, err := s.FindClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a verify on a dummy hash so absence costs the same
			// as a wrong secret.
			s.verifier.Verify(dummySecretHash, clientSecret)
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	if client.Confidential {
		if !s.verifier.Verify(client.SecretHash, clientSecret) {
			return nil, ErrInvalidClient
		}
		return client, nil
	}

	// Public client: no stored secret to check. Identity alone is only
	// acceptable for grant types that permit public clients.
	if !grantPermitsPublicClient(grantType) {
		s.verifier.Verify(dummySecretHash, clientSecret)
		return nil, ErrInvalidClient
	}
	if clientSecret != "" {
		// A secret was supplied but none is stored; fail closed.
		s.verifier.Verify(dummySecretHash, clientSecret)
		return nil, ErrInvalidClient
	}
	return client, nil
}

func grantPermitsPublicClient(grantType string) bool {
	switch grantType {
	case GrantPassword, GrantRefreshToken, GrantJWTBearer:
		return true
	}
	return false
}

func (s *clientService) GetScopes(ctx context.Context, clientID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	scopes, err := s.clientRepo.GetScopes(ctx, clientID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return scopes, nil
}

func (s *clientService) Create(ctx context.Context, req *models.CreateClientRequest) (*models.CreateClientResponse, error) {
	if req.Name == "" || req.TenantID == "" {
		return nil, fmt.Errorf("name and tenant_id are required")
	}

	client := &models.Client{
		ID:           uuid.NewString(),
		Name:         req.Name,
		RedirectURI:  req.RedirectURI,
		Confidential: req.Confidential,
		Tenant:       models.TenantRef{ID: req.TenantID},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	var secret string
	if req.Confidential {
		// The plaintext secret leaves the process exactly once, in the
		// create response. Only the keyed hash is persisted.
		secret = generateClientSecret()
		client.SecretHash = s.verifier.HashSecret(secret)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, classifyStoreErr(err)
	}

	return &models.CreateClientResponse{Client: *client, Secret: secret}, nil
}

func (s *clientService) List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Client, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	clients, err := s.clientRepo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return clients, nil
}

func (s *clientService) Delete(ctx context.Context, clientID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.clientRepo.Delete(ctx, clientID); err != nil {
		return classifyStoreErr(err)
	}
	_ = s.cacheSvc.DeleteClient(ctx, clientID)
	return nil
}

func (s *clientService) GrantScope(ctx context.Context, clientID, scope string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.clientRepo.GrantScope(ctx, clientID, scope); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *clientService) RevokeScope(ctx context.Context, clientID, scope string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.clientRepo.RevokeScope(ctx, clientID, scope); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

// generateClientSecret returns a 256-bit random secret.
func generateClientSecret() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}
