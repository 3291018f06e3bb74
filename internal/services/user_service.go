package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt hash of an unsatisfiable password, compared against when the
// user record is absent so both failure paths cost a full bcrypt run.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserService resolves resource-owner identities for grants that
// authenticate end users, and owns user management.
type UserService interface {
	// Resolve authenticates a user by email and password. Unknown user
	// and wrong password both return ErrInvalidGrant.
	Resolve(ctx context.Context, username, password string) (*models.User, error)
	// ResolveSubject resolves a user by bare identifier, for
	// assertion-based grants where authentication already happened.
	ResolveSubject(ctx context.Context, subject string) (*models.User, error)
	GetScopes(ctx context.Context, userID uuid.UUID) ([]string, error)

	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	GrantScope(ctx context.Context, userID uuid.UUID, scope string) error
	RevokeScope(ctx context.Context, userID uuid.UUID, scope string) error
}

type CreateUserRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=8"`
	Name     string    `json:"name"`
}

type userService struct {
	userRepo     repositories.UserRepository
	storeTimeout time.Duration
}

func NewUserService(userRepo repositories.UserRepository, storeTimeout time.Duration) UserService {
	return &userService{userRepo: userRepo, storeTimeout: storeTimeout}
}

func (s *userService) Resolve(ctx context.Context, username, password string) (*models.User, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	user, err := s.userRepo.GetByEmail(sctx, username)
	if err != nil {
		if classified := classifyStoreErr(err); !errors.Is(classified, ErrNotFound) {
			return nil, classified
		}
		bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
		return nil, ErrInvalidGrant
	}

	if user.PasswordHash == "" || user.Status != "active" {
		bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
		return nil, ErrInvalidGrant
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidGrant
	}
	return user, nil
}

func (s *userService) ResolveSubject(ctx context.Context, subject string) (*models.User, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidGrant
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	user, err := s.userRepo.GetByID(sctx, userID)
	if err != nil {
		if classified := classifyStoreErr(err); !errors.Is(classified, ErrNotFound) {
			return nil, classified
		}
		return nil, ErrInvalidGrant
	}
	if user.Status != "active" {
		return nil, ErrInvalidGrant
	}
	return user, nil
}

func (s *userService) GetScopes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	scopes, err := s.userRepo.GetScopes(ctx, userID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return scopes, nil
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *userService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	users, err := s.userRepo.List(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return users, nil
}

func (s *userService) GrantScope(ctx context.Context, userID uuid.UUID, scope string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.userRepo.GrantScope(ctx, userID, scope); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}

func (s *userService) RevokeScope(ctx context.Context, userID uuid.UUID, scope string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.userRepo.RevokeScope(ctx, userID, scope); err != nil {
		return classifyStoreErr(err)
	}
	return nil
}
