package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/model"
)

// TokenVerifier checks a raw access token and returns the identity it
// carries. The auth service implements it without touching any store.
type TokenVerifier interface {
	Verify(raw string) (model.Identity, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller's identity on the request context. Missing,
// malformed, expired and forged tokens all yield the same 401 response.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The scheme is matched case-insensitively; the token itself
			// follows a single space.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			id, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}
