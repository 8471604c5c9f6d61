package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jordanlanch/obramap/pkg/jobs"
	"github.com/labstack/echo/v4"
)

// Pinger is anything whose connection can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency health.
type HealthHandler struct {
	checks  map[string]Pinger
	monitor *jobs.AgingMonitor
}

// NewHealthHandler creates a new health handler. monitor may be nil.
func NewHealthHandler(checks map[string]Pinger, monitor *jobs.AgingMonitor) *HealthHandler {
	return &HealthHandler{checks: checks, monitor: monitor}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Aging    *jobs.Status      `json:"aging,omitempty"`
}

// Health pings every dependency; any failure answers 503.
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Services: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Services[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "up"
	}
	if h.monitor != nil {
		st := h.monitor.Status()
		resp.Aging = &st
	}
	return c.JSON(status, resp)
}

// Ping answers without touching any dependency.
// @Router /api/v1/ping [get]
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
}
