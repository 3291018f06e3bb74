package repositories

import (
	"context"

	"authshield/internal/models"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Client, error)
	GetScopes(ctx context.Context, clientID string) ([]string, error)
	GrantScope(ctx context.Context, clientID, scope string) error
	RevokeScope(ctx context.Context, clientID, scope string) error
}

type clientRepo struct {
	db Database
}

func NewClientRepo(db Database) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, name, redirect_uri, secret_hash, confidential, tenant_id, tenant_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, client.ID, client.Name, client.RedirectURI, client.SecretHash, client.Confidential, client.Tenant.ID, client.Tenant.Name)
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, name, redirect_uri, secret_hash, confidential, tenant_id, tenant_name, created_at, updated_at
		FROM clients
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&client.ID, &client.Name, &client.RedirectURI, &client.SecretHash, &client.Confidential, &client.Tenant.ID, &client.Tenant.Name, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $1, redirect_uri = $2, confidential = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, client.Name, client.RedirectURI, client.Confidential, client.ID)
	return err
}

func (r *clientRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM clients WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *clientRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*models.Client, error) {
	query := `
		SELECT id, name, redirect_uri, secret_hash, confidential, tenant_id, tenant_name, created_at, updated_at
		FROM clients
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		if err := rows.Scan(&client.ID, &client.Name, &client.RedirectURI, &client.SecretHash, &client.Confidential, &client.Tenant.ID, &client.Tenant.Name, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *clientRepo) GetScopes(ctx context.Context, clientID string) ([]string, error) {
	query := `SELECT scope FROM client_scopes WHERE client_id = $1 ORDER BY scope`
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

func (r *clientRepo) GrantScope(ctx context.Context, clientID, scope string) error {
	query := `
		INSERT INTO client_scopes (client_id, scope, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (client_id, scope) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, clientID, scope)
	return err
}

func (r *clientRepo) RevokeScope(ctx context.Context, clientID, scope string) error {
	query := `DELETE FROM client_scopes WHERE client_id = $1 AND scope = $2`
	_, err := r.db.Exec(ctx, query, clientID, scope)
	return err
}
