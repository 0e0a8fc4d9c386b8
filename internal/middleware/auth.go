package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/courio/courio/internal/domain"
)

// UserContextKey is where the authenticated user is stored on the request
// context.
const UserContextKey = "user"

// TokenVerifier turns a presented bearer credential into a verified identity.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth creates a middleware that protects routes requiring authentication.
// It expects an "Authorization: Bearer <token>" header, verifies the token
// through the session gate and loads the matching user into the context.
func Auth(gate TokenVerifier, users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
			}
			token := strings.TrimPrefix(header, "Bearer ")

			identity, err := gate.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			user, err := users.FindByID(c.Request().Context(), identity)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}
