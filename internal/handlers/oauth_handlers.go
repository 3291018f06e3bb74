package handlers

import (
	"errors"
	"net/http"

	"authshield/internal/common"
	"authshield/internal/models"
	"authshield/internal/services"

	"github.com/labstack/echo/v4"
)

// OAuthHandlers exposes the token issuance, revocation and
// introspection endpoints.
type OAuthHandlers struct {
	authService services.AuthService
}

func NewOAuthHandlers(authService services.AuthService) *OAuthHandlers {
	return &OAuthHandlers{authService: authService}
}

// Token handles POST /oauth/token for every supported grant type.
func (h *OAuthHandlers) Token(c echo.Context) error {
	var req models.TokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed token request")
	}
	if req.GrantType == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "grant_type is required")
	}

	resp, err := h.authService.IssueToken(c.Request().Context(), &req)
	if err != nil {
		return sendIssueError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Revoke handles POST /oauth/revoke (RFC 7009). Revocation is
// idempotent; unknown tokens still return 200.
func (h *OAuthHandlers) Revoke(c echo.Context) error {
	var req models.RevokeTokenRequest
	if err := c.Bind(&req); err != nil {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "malformed revocation request")
	}
	if req.Token == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "token is required")
	}

	if err := h.authService.RevokeToken(c.Request().Context(), req.Token, req.TokenTypeHint); err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			c.Response().Header().Set("Retry-After", "1")
			return common.SendOAuthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "revocation backend unavailable")
		}
		return common.SendOAuthError(c, http.StatusInternalServerError, "server_error", "failed to revoke token")
	}
	return c.NoContent(http.StatusOK)
}

// Introspect handles POST /oauth/introspect (RFC 7662).
func (h *OAuthHandlers) Introspect(c echo.Context) error {
	token := c.FormValue("token")
	if token == "" {
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_request", "token is required")
	}

	resp, err := h.authService.Introspect(c.Request().Context(), token)
	if err != nil {
		c.Response().Header().Set("Retry-After", "1")
		return common.SendOAuthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "introspection backend unavailable")
	}
	return c.JSON(http.StatusOK, resp)
}

// sendIssueError maps core errors onto RFC 6749 responses. Unknown
// client and wrong secret produce byte-identical bodies so callers
// cannot enumerate registered clients.
func sendIssueError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidClient):
		c.Response().Header().Set("WWW-Authenticate", `Basic realm="oauth"`)
		return common.SendOAuthError(c, http.StatusUnauthorized, "invalid_client", "client authentication failed")
	case errors.Is(err, services.ErrInvalidGrant):
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_grant", "the provided grant is invalid, expired, or revoked")
	case errors.Is(err, services.ErrInvalidScope):
		return common.SendOAuthError(c, http.StatusBadRequest, "invalid_scope", "requested scope exceeds the granted scope")
	case errors.Is(err, services.ErrUnsupportedGrantType):
		return common.SendOAuthError(c, http.StatusBadRequest, "unsupported_grant_type", "grant type is not supported")
	case errors.Is(err, services.ErrStoreUnavailable):
		c.Response().Header().Set("Retry-After", "1")
		return common.SendOAuthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "authorization backend unavailable")
	default:
		return common.SendOAuthError(c, http.StatusInternalServerError, "server_error", "token issuance failed")
	}
}
