package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authshield/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, tenantID string, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
	// ListBefore returns logs created before the cutoff, for archival.
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	auditLog.CreatedAt = time.Now()

	var detailBytes []byte
	var err error
	if auditLog.Detail != nil {
		detailBytes, err = json.Marshal(auditLog.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal detail: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, tenant_id, client_id, user_id, action, grant_type, detail, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
	`
	_, err = r.db.Exec(ctx, query, auditLog.ID, auditLog.TenantID, auditLog.ClientID, auditLog.UserID, auditLog.Action, auditLog.GrantType, detailBytes, auditLog.CreatedAt)
	return err
}

func (r *auditLogsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	auditLog := &models.AuditLog{}
	var detailBytes []byte
	query := `
		SELECT id, tenant_id, client_id, user_id, action, grant_type, detail, deleted, deleted_at, created_at
		FROM audit_logs
		WHERE id = $1 AND NOT deleted
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&auditLog.ID, &auditLog.TenantID, &auditLog.ClientID, &auditLog.UserID, &auditLog.Action, &auditLog.GrantType, &detailBytes, &auditLog.Deleted, &auditLog.DeletedAt, &auditLog.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(detailBytes) > 0 {
		if err := json.Unmarshal(detailBytes, &auditLog.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
		}
	}
	return auditLog, nil
}

func (r *auditLogsRepo) List(ctx context.Context, tenantID string, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, client_id, user_id, action, grant_type, detail, deleted, deleted_at, created_at
		FROM audit_logs
		WHERE tenant_id = $1 AND NOT deleted
	`
	args := []any{tenantID}
	argPos := 2

	if filters.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", argPos)
		args = append(args, *filters.ClientID)
		argPos++
	}
	if filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, *filters.UserID)
		argPos++
	}
	if filters.Action != nil {
		query += fmt.Sprintf(" AND action = $%d", argPos)
		args = append(args, *filters.Action)
		argPos++
	}
	if filters.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argPos)
		args = append(args, *filters.StartDate)
		argPos++
	}
	if filters.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argPos)
		args = append(args, *filters.EndDate)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *auditLogsRepo) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, client_id, user_id, action, grant_type, detail, deleted, deleted_at, created_at
		FROM audit_logs
		WHERE created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *auditLogsRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM audit_logs WHERE created_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAuditLogs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*models.AuditLog, error) {
	var logs []*models.AuditLog
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var detailBytes []byte
		if err := rows.Scan(&auditLog.ID, &auditLog.TenantID, &auditLog.ClientID, &auditLog.UserID, &auditLog.Action, &auditLog.GrantType, &detailBytes, &auditLog.Deleted, &auditLog.DeletedAt, &auditLog.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailBytes) > 0 {
			if err := json.Unmarshal(detailBytes, &auditLog.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		logs = append(logs, auditLog)
	}
	return logs, rows.Err()
}
