package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/core/domain"
)

const msgForbidden = "You do not have permission to perform this action."

// RBAC enforces role-based access control on top of Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"detail": msgForbidden})
			}
			return next(c)
		}
	}
}
