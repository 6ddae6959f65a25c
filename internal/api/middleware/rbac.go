package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/api/metrics"
	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// RBAC gates a route to the given roles. Finer-grained decisions (who may
// see or edit whom) live in the domain layer; this only protects whole
// route groups.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := c.Get("actor").(ports.Actor)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
			}
			if _, ok := allowed[actor.Role]; !ok {
				metrics.AccessDeniedTotal.WithLabelValues("route").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
			}
			return next(c)
		}
	}
}
