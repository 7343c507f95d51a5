package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/session"
)

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(session.RoleAdmin)
}

// roleMiddleware only lets requests through whose session role is one
// of the given roles.
func roleMiddleware(roles ...session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			for _, role := range roles {
				if sess.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
