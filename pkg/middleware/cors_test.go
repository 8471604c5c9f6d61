package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

var testOrigins = []string{"http://localhost:5173", "https://app.obramap.app"}

func newCORSEcho() *echo.Echo {
	e := echo.New()
	e.Use(middleware.CORSWithConfig(CORSConfig(testOrigins)))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return e
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"dev client", "http://localhost:5173", true},
		{"production client", "https://app.obramap.app", true},
		{"unknown site", "https://evil.com", false},
		{"suffix attack", "https://app.obramap.app.evil.com", false},
		{"plain http production", "http://app.obramap.app", false},
		{"null origin", "null", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCORSEcho()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			acao := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed {
				assert.Equal(t, tt.origin, acao)
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.NotEqual(t, tt.origin, acao)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	e := newCORSEcho()
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "https://app.obramap.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	req.Header.Set("Access-Control-Request-Headers", "Authorization,Content-Type")
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	methods := rec.Header().Get("Access-Control-Allow-Methods")
	for _, m := range AllowedMethods {
		assert.Contains(t, methods, m)
	}
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORSConfig(t *testing.T) {
	t.Run("Wildcard and blanks are dropped", func(t *testing.T) {
		cfg := CORSConfig([]string{"*", "", "https://app.obramap.app"})
		assert.Equal(t, []string{"https://app.obramap.app"}, cfg.AllowOrigins)
		assert.True(t, cfg.AllowCredentials)
	})

	t.Run("OPTIONS is left to the middleware", func(t *testing.T) {
		assert.NotContains(t, CORSConfig(testOrigins).AllowMethods, http.MethodOptions)
	})

	t.Run("Download name is readable cross-origin", func(t *testing.T) {
		assert.Contains(t, CORSConfig(testOrigins).ExposeHeaders, "Content-Disposition")
	})
}
