package middleware

// identity.go carries the authenticated caller between middleware and
// handlers. JWTAuth stores a typed model.Identity on the Echo context and
// handlers read it back with IdentityFrom.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taskboard/internal/model"
)

const identityKey = "identity"

// SetIdentity stores the verified caller on the context.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller stored by JWTAuth. ok is false on routes
// that are not behind JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}
