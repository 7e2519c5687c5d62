package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicrecords/api/internal/platform/apperr"
)

// RequireRole rejects callers whose role is not listed. ADMIN passes every
// guard.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return apperr.Unauthenticated("authentication required")
			}
			if id.Role == RoleAdmin {
				return next(c)
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return apperr.Forbidden("required role: " + strings.Join(names, " or "))
		}
	}
}
