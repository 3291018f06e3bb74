package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event actions recorded by the authorization core
const (
	AuditTokenIssued   = "token_issued"
	AuditTokenRejected = "token_rejected"
	AuditTokenRevoked  = "token_revoked"
	AuditAccessDenied  = "access_denied"
)

// JSONB represents a PostgreSQL JSONB column
type JSONB map[string]interface{}

type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	ClientID  string     `json:"client_id" db:"client_id"`
	UserID    *string    `json:"user_id" db:"user_id"`
	Action    string     `json:"action" db:"action"`
	GrantType *string    `json:"grant_type" db:"grant_type"`
	Detail    JSONB      `json:"detail" db:"detail"`
	Deleted   bool       `json:"deleted" db:"deleted"`
	DeletedAt *time.Time `json:"deleted_at" db:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// AuditLogFilters controls audit log list queries
type AuditLogFilters struct {
	ClientID  *string    `json:"client_id"`
	UserID    *string    `json:"user_id"`
	Action    *string    `json:"action"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
