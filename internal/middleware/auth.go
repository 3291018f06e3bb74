package middleware

import (
	"context"
	"errors"
	"net/http"

	"authshield/internal/caching"
	"authshield/internal/common"
	"authshield/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware guards protected routes: bearer validation, scope
// enforcement per the policy table, and per-caller rate limiting.
type AuthMiddleware struct {
	authSvc  services.AuthService
	cacheSvc caching.CacheService
	policies PolicyTable
}

func NewAuthMiddleware(authSvc services.AuthService, cacheSvc caching.CacheService, policies PolicyTable) *AuthMiddleware {
	return &AuthMiddleware{
		authSvc:  authSvc,
		cacheSvc: cacheSvc,
		policies: policies,
	}
}

// CheckCredentials validates the bearer token and enforces the route's
// required scopes before the handler runs.
func (m *AuthMiddleware) CheckCredentials() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := common.BearerToken(c.Request())
			if !ok {
				return common.SendOAuthError(c, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			}

			policy, _ := m.policies.Lookup(c.Request().Method, c.Path())

			decision, err := m.authSvc.Authorize(c.Request().Context(), token, policy.RequiredScopes)
			if err != nil {
				if errors.Is(err, services.ErrStoreUnavailable) {
					c.Response().Header().Set("Retry-After", "1")
					return common.SendOAuthError(c, http.StatusServiceUnavailable, "temporarily_unavailable", "authorization backend unavailable")
				}
				return common.SendOAuthError(c, http.StatusUnauthorized, "invalid_token", "token is invalid, expired, or revoked")
			}
			if !decision.Allowed {
				return common.SendOAuthError(c, http.StatusForbidden, "insufficient_scope", "granted scopes do not cover this operation")
			}

			claims := decision.Claims
			ctx := context.WithValue(c.Request().Context(), common.ClientIDKey, claims.ClientID)
			ctx = context.WithValue(ctx, common.TenantIDKey, claims.TenantID)
			ctx = context.WithValue(ctx, common.ScopesKey, services.ParseScopes(claims.Scope))
			if claims.UserID != "" {
				ctx = context.WithValue(ctx, common.UserIDKey, claims.UserID)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
