package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/carepoint/scheduling-api/internal/core/domain"
	"github.com/carepoint/scheduling-api/internal/core/policy"
)

// RequireRole enforces role-based access control. It must run after Auth.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if !policy.HasRole(p, roles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
