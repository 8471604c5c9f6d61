package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithHeaders(t *testing.T, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil), rec)
	return rec, SecurityHeaders(cfg)(next)(c)
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "OK") }

func TestSecurityHeaders_Defaults(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{}, ok)
	require.NoError(t, err)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "img-src 'self' data: blob: https:")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.NotContains(t, csp, "stripe")

	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))

	pp := rec.Header().Get("Permissions-Policy")
	assert.Contains(t, pp, "geolocation=(self)")
	assert.Contains(t, pp, "microphone=()")
}

func TestSecurityHeaders_Overrides(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'",
		ReferrerPolicy:        "no-referrer",
	}, ok)
	require.NoError(t, err)

	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, DefaultSecurityHeadersConfig().PermissionsPolicy, rec.Header().Get("Permissions-Policy"))
}

func TestSecurityHeaders_SetOnHandlerError(t *testing.T) {
	rec, err := serveWithHeaders(t, SecurityHeadersConfig{}, func(c echo.Context) error {
		return echo.ErrInternalServerError
	})
	assert.Error(t, err)
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
}
