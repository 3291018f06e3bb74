package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"authshield/internal/common"

	"github.com/labstack/echo/v4"
)

const rateLimitWindow = time.Minute

// RateLimit enforces the per-route request budget from the policy
// table. Callers are keyed by client id once authenticated and by
// remote IP otherwise. The form client_id is never used as the key:
// it is caller-supplied, so rotating it would reset the budget.
func (m *AuthMiddleware) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			policy, ok := m.policies.Lookup(c.Request().Method, c.Path())
			if !ok || policy.RateLimit <= 0 {
				return next(c)
			}

			caller, ok := common.GetClientIDFromContext(c.Request().Context())
			if !ok {
				caller = c.RealIP()
			}

			key := fmt.Sprintf("%s:%s", PolicyKey(c.Request().Method, c.Path()), caller)
			limited, err := m.cacheSvc.IsRateLimited(c.Request().Context(), key, policy.RateLimit, rateLimitWindow)
			if err != nil {
				// Limiter backend down: let the request through rather
				// than turning an outage into a full deny.
				log.Printf("WARN: rate limiter unavailable: %v", err)
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", "60")
				return common.SendOAuthError(c, http.StatusTooManyRequests, "slow_down", "rate limit exceeded for this operation")
			}

			return next(c)
		}
	}
}
