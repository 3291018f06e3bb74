package services

import (
	"context"
	"log"
	"time"

	"authshield/internal/models"
	"authshield/internal/repositories"
)

// AuditLogsService records authorization events. Writes are best
// effort: an audit failure never blocks the request that caused it.
type AuditLogsService interface {
	LogTokenIssued(ctx context.Context, tenantID, clientID string, userID *string, grantType string, scopes []string)
	LogTokenRejected(ctx context.Context, clientID, grantType string, reason error)
	LogTokenRevoked(ctx context.Context, tenantID, clientID, tokenID string)
	LogAccessDenied(ctx context.Context, tenantID, clientID, userID string, requiredScopes []string)

	List(ctx context.Context, tenantID string, filters *models.AuditLogFilters) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
	storeTimeout  time.Duration
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository, storeTimeout time.Duration) AuditLogsService {
	return &auditLogsService{auditLogsRepo: auditLogsRepo, storeTimeout: storeTimeout}
}

func (s *auditLogsService) write(ctx context.Context, entry *models.AuditLog) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.auditLogsRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit log (%s): %v", entry.Action, err)
	}
}

func (s *auditLogsService) LogTokenIssued(ctx context.Context, tenantID, clientID string, userID *string, grantType string, scopes []string) {
	s.write(ctx, &models.AuditLog{
		TenantID:  tenantID,
		ClientID:  clientID,
		UserID:    userID,
		Action:    models.AuditTokenIssued,
		GrantType: &grantType,
		Detail:    models.JSONB{"scopes": scopes},
	})
}

func (s *auditLogsService) LogTokenRejected(ctx context.Context, clientID, grantType string, reason error) {
	detail := models.JSONB{}
	if reason != nil {
		detail["reason"] = reason.Error()
	}
	s.write(ctx, &models.AuditLog{
		ClientID:  clientID,
		Action:    models.AuditTokenRejected,
		GrantType: &grantType,
		Detail:    detail,
	})
}

func (s *auditLogsService) LogTokenRevoked(ctx context.Context, tenantID, clientID, tokenID string) {
	s.write(ctx, &models.AuditLog{
		TenantID: tenantID,
		ClientID: clientID,
		Action:   models.AuditTokenRevoked,
		Detail:   models.JSONB{"token_id": tokenID},
	})
}

func (s *auditLogsService) LogAccessDenied(ctx context.Context, tenantID, clientID, userID string, requiredScopes []string) {
	entry := &models.AuditLog{
		TenantID: tenantID,
		ClientID: clientID,
		Action:   models.AuditAccessDenied,
		Detail:   models.JSONB{"required_scopes": requiredScopes},
	}
	if userID != "" {
		entry.UserID = &userID
	}
	s.write(ctx, entry)
}

func (s *auditLogsService) List(ctx context.Context, tenantID string, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{Limit: 50}
	}
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	logs, err := s.auditLogsRepo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return logs, nil
}
