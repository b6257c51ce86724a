package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/httperr"
)

// Known roles. Role is fixed at registration; self-registration is limited to
// the non-privileged roles and admins are created out of band.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// RequireRole returns middleware that checks the authenticated user's role
// against an allow list. It must run after BearerAuth: an absent role means
// no token was validated, which is a 401, not a 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == "" {
				return httperr.Auth("missing authorization header")
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return httperr.Forbidden("required role: %s", strings.Join(roles, " or "))
		}
	}
}
