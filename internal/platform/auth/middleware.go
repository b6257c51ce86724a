package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medisense/medisense/internal/platform/httperr"
)

// UserVerifier re-checks token subjects against the credential store. A token
// is only as good as the account behind it: a deactivated or deleted user must
// be rejected on every request, not just at login.
type UserVerifier interface {
	VerifyActive(ctx context.Context, id uuid.UUID) error
}

// BearerAuth returns middleware that validates the Authorization bearer token,
// re-checks the account's active flag, and stores the user id and role on the
// request context.
func BearerAuth(issuer *TokenIssuer, verifier UserVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := claimsFromRequest(c, issuer)
			if err != nil {
				return err
			}

			userID, err := claims.UserID()
			if err != nil {
				return err
			}

			if err := verifier.VerifyActive(c.Request().Context(), userID); err != nil {
				return err
			}

			ctx := WithUser(c.Request().Context(), userID, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// OptionalBearerAuth behaves like BearerAuth when a token is present but lets
// anonymous requests through unchanged. Used by the public prediction
// endpoint, where an attached identity only controls whether the result is
// persisted.
func OptionalBearerAuth(issuer *TokenIssuer, verifier UserVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}

			claims, err := claimsFromRequest(c, issuer)
			if err != nil {
				return err
			}
			userID, err := claims.UserID()
			if err != nil {
				return err
			}
			if err := verifier.VerifyActive(c.Request().Context(), userID); err != nil {
				return err
			}

			ctx := WithUser(c.Request().Context(), userID, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func claimsFromRequest(c echo.Context, issuer *TokenIssuer) (*Claims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, httperr.Auth("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, httperr.Auth("invalid authorization format")
	}

	return issuer.Verify(parts[1])
}
