package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"shortlink/internal/auth"
)

const identityContextKey = "identity"

var errAuthRequired = map[string]string{"error": "authentication required"}

// RequireAuth extracts and verifies the bearer token, storing the
// resulting identity on the request context for handlers downstream.
func RequireAuth(verifier auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, errAuthRequired)
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errAuthRequired)
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the authenticated identity set by RequireAuth,
// or nil on public routes.
func IdentityFrom(c echo.Context) *auth.Identity {
	identity, _ := c.Get(identityContextKey).(*auth.Identity)
	return identity
}
