package repositories

import (
	"context"
	"time"

	"authshield/internal/models"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	// Revoke marks a token revoked. Revoking an unknown or already
	// revoked token is not an error.
	Revoke(ctx context.Context, tokenHash string) error
	// Redeem atomically revokes a live token and returns it. Returns
	// pgx.ErrNoRows when the token is unknown, expired or already
	// revoked, so two concurrent redemptions succeed at most once.
	Redeem(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenRepo struct {
	db Database
}

func NewTokenRepo(db Database) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token_hash, client_id, user_id, tenant_id, scopes, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW())
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.TokenHash, token.ClientID, token.UserID, token.TenantID, token.Scopes, token.ExpiresAt)
	return err
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	query := `
		SELECT id, token_hash, client_id, user_id, tenant_id, scopes, expires_at, revoked, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&token.ID, &token.TokenHash, &token.ClientID, &token.UserID, &token.TenantID, &token.Scopes, &token.ExpiresAt, &token.Revoked, &token.RevokedAt, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = true, revoked_at = NOW()
		WHERE token_hash = $1 AND NOT revoked
	`
	_, err := r.db.Exec(ctx, query, tokenHash)
	return err
}

func (r *tokenRepo) Redeem(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	query := `
		UPDATE refresh_tokens
		SET revoked = true, revoked_at = NOW()
		WHERE token_hash = $1 AND NOT revoked AND expires_at > NOW()
		RETURNING id, token_hash, client_id, user_id, tenant_id, scopes, expires_at, revoked, revoked_at, created_at
	`
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(&token.ID, &token.TokenHash, &token.ClientID, &token.UserID, &token.TenantID, &token.Scopes, &token.ExpiresAt, &token.Revoked, &token.RevokedAt, &token.CreatedAt)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`
	tag, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
