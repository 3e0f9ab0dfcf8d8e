package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/user"
)

// roleMiddleware lets active users of the given role through and loads them into the context.
func roleMiddleware(svc user.Service, role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role != role {
				return errHttpForbidden
			}

			usr, err := getContextUser(ctx, svc, claims)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.Role != role {
				return errHttpForbidden
			}
			if err = checkStatus(usr); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
