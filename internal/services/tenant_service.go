package services

import (
	"context"
	"fmt"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"

	"github.com/google/uuid"
)

// TenantService manages the tenants that clients and users belong to.
type TenantService interface {
	Create(ctx context.Context, name string) (*models.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo   repositories.TenantRepository
	storeTimeout time.Duration
}

func NewTenantService(tenantRepo repositories.TenantRepository, storeTimeout time.Duration) TenantService {
	return &tenantService{tenantRepo: tenantRepo, storeTimeout: storeTimeout}
}

func (s *tenantService) Create(ctx context.Context, name string) (*models.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	now := time.Now()
	tenant := &models.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, classifyStoreErr(err)
	}
	return tenant, nil
}

func (s *tenantService) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return tenant, nil
}

func (s *tenantService) Update(ctx context.Context, tenant *models.Tenant) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tenant.UpdatedAt = time.Now()
	return classifyStoreErr(s.tenantRepo.Update(ctx, tenant))
}

func (s *tenantService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return classifyStoreErr(s.tenantRepo.Delete(ctx, id))
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tenants, err := s.tenantRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return tenants, nil
}
