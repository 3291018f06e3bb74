package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"authshield/internal/common"
	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/labstack/echo/v4"
)

// ClientHandlers manages OAuth client registration and scope grants.
type ClientHandlers struct {
	clientService services.ClientService
}

func NewClientHandlers(clientService services.ClientService) *ClientHandlers {
	return &ClientHandlers{clientService: clientService}
}

// Create registers a new client. The plaintext secret is returned in
// this response and never again.
func (h *ClientHandlers) Create(c echo.Context) error {
	var req models.CreateClientRequest
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed client payload")
	}
	if req.Name == "" || req.TenantID == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "name and tenant_id are required")
	}

	resp, err := h.clientService.Create(c.Request().Context(), &req)
	if err != nil {
		return sendStoreError(c, err, "failed to create client")
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *ClientHandlers) Get(c echo.Context) error {
	client, err := h.clientService.FindClient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sendStoreError(c, err, "failed to fetch client")
	}
	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandlers) List(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	tenantID := c.QueryParam("tenant_id")
	if tenantID == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant_id is required")
	}

	clients, err := h.clientService.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return sendStoreError(c, err, "failed to list clients")
	}
	return c.JSON(http.StatusOK, clients)
}

func (h *ClientHandlers) Delete(c echo.Context) error {
	if err := h.clientService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return sendStoreError(c, err, "failed to delete client")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandlers) GetScopes(c echo.Context) error {
	scopes, err := h.clientService.GetScopes(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sendStoreError(c, err, "failed to fetch client scopes")
	}
	return c.JSON(http.StatusOK, map[string][]string{"scopes": scopes})
}

func (h *ClientHandlers) GrantScope(c echo.Context) error {
	var req struct {
		Scope string `json:"scope"`
	}
	if err := c.Bind(&req); err != nil || req.Scope == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "scope is required")
	}
	if err := h.clientService.GrantScope(c.Request().Context(), c.Param("id"), req.Scope); err != nil {
		return sendStoreError(c, err, "failed to grant scope")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ClientHandlers) RevokeScope(c echo.Context) error {
	if err := h.clientService.RevokeScope(c.Request().Context(), c.Param("id"), c.Param("scope")); err != nil {
		return sendStoreError(c, err, "failed to revoke scope")
	}
	return c.NoContent(http.StatusNoContent)
}

// parsePagination reads limit/offset query params with sane defaults.
func parsePagination(c echo.Context) (int, int, error) {
	limit := 50
	offset := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
		limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("offset must be an integer")
		}
		offset = n
	}
	return common.ValidatePaginationParams(limit, offset)
}

// sendStoreError maps service-layer errors for the management API.
func sendStoreError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return common.SendOAuthError(c, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, services.ErrStoreUnavailable):
		c.Response().Header().Set("Retry-After", "1")
		return common.SendOAuthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "backend store unavailable")
	default:
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", errOrFallback(err, fallback))
	}
}

func errOrFallback(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
