package handlers

import (
	"net/http"
	"time"

	"authshield/internal/common"
	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/labstack/echo/v4"
)

type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// List returns audit entries for a tenant, newest first. Optional
// filters: client_id, user_id, action, start_date, end_date (RFC 3339).
func (h *AuditLogsHandlers) List(c echo.Context) error {
	tenantID := c.QueryParam("tenant_id")
	if tenantID == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant_id is required")
	}
	limit, offset, err := parsePagination(c)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}
	if v := c.QueryParam("client_id"); v != "" {
		filters.ClientID = &v
	}
	if v := c.QueryParam("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := c.QueryParam("action"); v != "" {
		filters.Action = &v
	}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "start_date must be RFC 3339")
		}
		filters.StartDate = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "end_date must be RFC 3339")
		}
		filters.EndDate = &t
	}

	logs, err := h.auditLogsService.List(c.Request().Context(), tenantID, filters)
	if err != nil {
		return sendStoreError(c, err, "failed to list audit logs")
	}
	return c.JSON(http.StatusOK, logs)
}
