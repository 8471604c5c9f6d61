package middleware

import (
	"context"
	"strings"
	"time"

	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/labstack/echo/v4"
)

const sessionKey = "session"

// Authenticator resolves a bearer token into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (session.Session, error)
}

func bearerToken(c echo.Context) string {
	parts := strings.Fields(c.Request().Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func authenticate(c echo.Context, authn Authenticator, token string, next echo.HandlerFunc) error {
	if token == "" {
		return apierrors.UnauthorizedError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sess, err := authn.Authenticate(ctx, token)
	if err != nil || !sess.Valid() {
		return apierrors.UnauthorizedError(c)
	}

	c.Set(sessionKey, sess)
	return next(c)
}

// RequireSession authenticates the Authorization bearer token and installs
// the session for handlers to read with CurrentSession.
func RequireSession(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return authenticate(c, authn, bearerToken(c), next)
		}
	}
}

// RequireSessionFromQueryOrHeader also accepts ?token=, for download links
// opened without custom headers.
func RequireSessionFromQueryOrHeader(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				token = c.QueryParam("token")
			}
			return authenticate(c, authn, token, next)
		}
	}
}

// CurrentSession returns the session installed by RequireSession.
func CurrentSession(c echo.Context) (session.Session, bool) {
	sess, ok := c.Get(sessionKey).(session.Session)
	return sess, ok
}

// WithSession installs sess directly. Used by tests and internal callers.
func WithSession(c echo.Context, sess session.Session) {
	c.Set(sessionKey, sess)
}
