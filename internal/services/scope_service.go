package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"
)

// ScopeService owns the scope registry and the authorization gate.
type ScopeService interface {
	// Authorize reports whether required is a subset of granted.
	// Empty required always authorizes. Matching is exact and
	// case-sensitive; no normalization is applied. Pure function, safe
	// to evaluate per request without contention.
	Authorize(granted, required []string) bool

	Create(ctx context.Context, req *models.CreateScopeRequest) (*models.Scope, error)
	Get(ctx context.Context, name string) (*models.Scope, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, limit, offset int) ([]*models.Scope, error)
}

type scopeService struct {
	scopeRepo    repositories.ScopeRepository
	storeTimeout time.Duration
}

func NewScopeService(scopeRepo repositories.ScopeRepository, storeTimeout time.Duration) ScopeService {
	return &scopeService{scopeRepo: scopeRepo, storeTimeout: storeTimeout}
}

func (s *scopeService) Authorize(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	grantedSet := make(map[string]struct{}, len(granted))
	for _, scope := range granted {
		grantedSet[scope] = struct{}{}
	}
	for _, scope := range required {
		if _, ok := grantedSet[scope]; !ok {
			return false
		}
	}
	return true
}

func (s *scopeService) Create(ctx context.Context, req *models.CreateScopeRequest) (*models.Scope, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("scope name is required")
	}
	scope := &models.Scope{
		Name:        name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.scopeRepo.Create(ctx, scope); err != nil {
		return nil, classifyStoreErr(err)
	}
	return scope, nil
}

func (s *scopeService) Get(ctx context.Context, name string) (*models.Scope, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	scope, err := s.scopeRepo.GetByName(ctx, name)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return scope, nil
}

func (s *scopeService) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.scopeRepo.Delete(ctx, name); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *scopeService) List(ctx context.Context, limit, offset int) ([]*models.Scope, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	scopes, err := s.scopeRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return scopes, nil
}

// ParseScopes splits a space-delimited scope string into tokens.
func ParseScopes(scope string) []string {
	return strings.Fields(scope)
}

// JoinScopes renders a scope set in token-response form.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}
