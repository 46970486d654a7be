package echoapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/principal"
)

const contextPrincipalKey = "principal"

// principalMiddleware resolves the Authorization bearer token to a Principal.
// A missing header resolves to the anonymous principal (public reads stay
// reachable; the policy evaluator decides); a present-but-invalid token is a
// hard 401.
func principalMiddleware(resolver *principal.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				ctx.Set(contextPrincipalKey, principal.Anonymous())
				return next(ctx)
			}

			credential := strings.TrimPrefix(header, "Bearer ")
			prn, err := resolver.Resolve(credential)
			if err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, prn)
			return next(ctx)
		}
	}
}

func getContextPrincipal(ctx echo.Context) principal.Principal {
	if prn, ok := ctx.Get(contextPrincipalKey).(principal.Principal); ok {
		return prn
	}
	return principal.Anonymous()
}

// internalKeyMiddleware guards the trusted backend routes behind the shared
// internal API key. An unset key disables the whole surface.
func internalKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key := core.Conf.Server.InternalAPIKey
			if key == "" {
				return echo.NewHTTPError(http.StatusNotFound)
			}
			given := ctx.Request().Header.Get("X-Internal-Key")
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				return core.ErrUnauthenticated
			}
			return next(ctx)
		}
	}
}
