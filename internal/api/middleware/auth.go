package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextUser = "user"
	ContextRole = "role"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgTokenInvalid  = "Given token not valid for any token type"
)

// UserLookup resolves the account a token belongs to.
type UserLookup interface {
	User(ctx context.Context, id int64) (domain.User, error)
}

// Auth validates the bearer access token and injects the current user. The
// role comes from the stored account, not from the token, so a role change
// takes effect on the next request.
func Auth(issuer *Issuer, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, msgNoCredentials)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, msgTokenInvalid)
			}

			claims, err := issuer.Parse(parts[1], TokenAccess)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, msgTokenInvalid)
			}
			user, err := users.User(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}

			c.Set(ContextUser, user)
			c.Set(ContextRole, string(user.Role))
			return next(c)
		}
	}
}
