package repositories

import (
	"context"

	"authshield/internal/models"
)

type ScopeRepository interface {
	Create(ctx context.Context, scope *models.Scope) error
	GetByName(ctx context.Context, name string) (*models.Scope, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, limit, offset int) ([]*models.Scope, error)
}

type scopeRepo struct {
	db Database
}

func NewScopeRepo(db Database) ScopeRepository {
	return &scopeRepo{db: db}
}

func (r *scopeRepo) Create(ctx context.Context, scope *models.Scope) error {
	query := `
		INSERT INTO scopes (name, description, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, scope.Name, scope.Description)
	return err
}

func (r *scopeRepo) GetByName(ctx context.Context, name string) (*models.Scope, error) {
	scope := &models.Scope{}
	query := `SELECT name, description, created_at FROM scopes WHERE name = $1`
	err := r.db.QueryRow(ctx, query, name).Scan(&scope.Name, &scope.Description, &scope.CreatedAt)
	if err != nil {
		return nil, err
	}
	return scope, nil
}

func (r *scopeRepo) Delete(ctx context.Context, name string) error {
	query := `DELETE FROM scopes WHERE name = $1`
	_, err := r.db.Exec(ctx, query, name)
	return err
}

func (r *scopeRepo) List(ctx context.Context, limit, offset int) ([]*models.Scope, error) {
	query := `
		SELECT name, description, created_at
		FROM scopes
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []*models.Scope
	for rows.Next() {
		scope := &models.Scope{}
		if err := rows.Scan(&scope.Name, &scope.Description, &scope.CreatedAt); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}
