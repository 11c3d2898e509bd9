package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const ContextSubjectKey = "admin_subject"

// AdminMiddleware requires a bearer token carrying the admin role and stores its subject in
// the context.
func AdminMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := manager.ParseAdminToken(tokenString)
			if errors.Is(err, ErrForbidden) {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextSubjectKey, claims.Subject)
			return next(c)
		}
	}
}

func SubjectFromContext(c echo.Context) (string, bool) {
	subject, ok := c.Get(ContextSubjectKey).(string)
	return subject, ok
}
