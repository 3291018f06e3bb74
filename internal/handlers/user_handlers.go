package handlers

import (
	"net/http"

	"authshield/internal/common"
	"authshield/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers manages resource-owner accounts and their scope grants.
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

type createUserPayload struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *UserHandlers) Create(c echo.Context) error {
	var payload createUserPayload
	if err := c.Bind(&payload); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed user payload")
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant_id must be a valid UUID")
	}

	user, err := h.userService.Create(c.Request().Context(), &services.CreateUserRequest{
		TenantID: tenantID,
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		return sendStoreError(c, err, "failed to create user")
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	user, err := h.userService.Get(c.Request().Context(), id)
	if err != nil {
		return sendStoreError(c, err, "failed to fetch user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) List(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	tenantID, err := uuid.Parse(c.QueryParam("tenant_id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "tenant_id must be a valid UUID")
	}

	users, err := h.userService.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return sendStoreError(c, err, "failed to list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandlers) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	var req struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed user payload")
	}

	user, err := h.userService.Get(c.Request().Context(), id)
	if err != nil {
		return sendStoreError(c, err, "failed to fetch user")
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if err := h.userService.Update(c.Request().Context(), user); err != nil {
		return sendStoreError(c, err, "failed to update user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	if err := h.userService.Delete(c.Request().Context(), id); err != nil {
		return sendStoreError(c, err, "failed to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) GetScopes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	scopes, err := h.userService.GetScopes(c.Request().Context(), id)
	if err != nil {
		return sendStoreError(c, err, "failed to fetch user scopes")
	}
	return c.JSON(http.StatusOK, map[string][]string{"scopes": scopes})
}

func (h *UserHandlers) GrantScope(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	var req struct {
		Scope string `json:"scope"`
	}
	if err := c.Bind(&req); err != nil || req.Scope == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "scope is required")
	}
	if err := h.userService.GrantScope(c.Request().Context(), id, req.Scope); err != nil {
		return sendStoreError(c, err, "failed to grant scope")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) RevokeScope(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "user id must be a valid UUID")
	}
	if err := h.userService.RevokeScope(c.Request().Context(), id, c.Param("scope")); err != nil {
		return sendStoreError(c, err, "failed to revoke scope")
	}
	return c.NoContent(http.StatusNoContent)
}
