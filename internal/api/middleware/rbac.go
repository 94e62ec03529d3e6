package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// RBAC enforces role-based access control.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[domain.Role(role)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireMonitoring admits sessions whose role and tier resolve to the
// monitoring capability.
func RequireMonitoring() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			tier, _ := c.Get("tier").(string)
			if !domain.ResolveCapabilities(domain.Role(role), domain.Tier(tier)).CanMonitor {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "monitoring requires a paid tier"})
			}
			return next(c)
		}
	}
}
