package handlers

import (
	"net/http"

	"authshield/internal/common"
	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/labstack/echo/v4"
)

// ScopeHandlers manages the registry of known scope names.
type ScopeHandlers struct {
	scopeService services.ScopeService
}

func NewScopeHandlers(scopeService services.ScopeService) *ScopeHandlers {
	return &ScopeHandlers{scopeService: scopeService}
}

func (h *ScopeHandlers) Create(c echo.Context) error {
	var req models.CreateScopeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed scope payload")
	}

	scope, err := h.scopeService.Create(c.Request().Context(), &req)
	if err != nil {
		return sendStoreError(c, err, "failed to create scope")
	}
	return c.JSON(http.StatusCreated, scope)
}

func (h *ScopeHandlers) Get(c echo.Context) error {
	scope, err := h.scopeService.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return sendStoreError(c, err, "failed to fetch scope")
	}
	return c.JSON(http.StatusOK, scope)
}

func (h *ScopeHandlers) List(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	scopes, err := h.scopeService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return sendStoreError(c, err, "failed to list scopes")
	}
	return c.JSON(http.StatusOK, scopes)
}

func (h *ScopeHandlers) Delete(c echo.Context) error {
	if err := h.scopeService.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return sendStoreError(c, err, "failed to delete scope")
	}
	return c.NoContent(http.StatusNoContent)
}
