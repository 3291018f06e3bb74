package handlers

import (
	"net/http"

	"authshield/internal/common"
	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

func (h *TenantHandlers) Create(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "name is required")
	}

	tenant, err := h.tenantService.Create(c.Request().Context(), req.Name)
	if err != nil {
		return sendStoreError(c, err, "failed to create tenant")
	}
	return c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandlers) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant id must be a valid UUID")
	}
	tenant, err := h.tenantService.Get(c.Request().Context(), id)
	if err != nil {
		return sendStoreError(c, err, "failed to fetch tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant id must be a valid UUID")
	}
	var req struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed tenant payload")
	}

	tenant := &models.Tenant{ID: id, Name: req.Name, Status: req.Status}
	if err := h.tenantService.Update(c.Request().Context(), tenant); err != nil {
		return sendStoreError(c, err, "failed to update tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) List(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	tenants, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return sendStoreError(c, err, "failed to list tenants")
	}
	return c.JSON(http.StatusOK, tenants)
}

func (h *TenantHandlers) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant id must be a valid UUID")
	}
	if err := h.tenantService.Delete(c.Request().Context(), id); err != nil {
		return sendStoreError(c, err, "failed to delete tenant")
	}
	return c.NoContent(http.StatusNoContent)
}
