package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Record methods are safe on a nil receiver.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Business metrics
	LeadsAged       prometheus.Counter
	AgingSweeps     *prometheus.CounterVec
	RegionsCreated  prometheus.Counter
	LoginAttempts   *prometheus.CounterVec
	UsersRegistered prometheus.Counter
	Uploads         *prometheus.CounterVec
	ExportsCreated  prometheus.Counter
}

// New creates a Metrics instance registered on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers every metric on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		LeadsAged: factory.NewCounter(prometheus.CounterOpts{
			Name: "obramap_leads_aged_total",
			Help: "Total number of obras demoted to inactive by the aging sweep",
		}),
		AgingSweeps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obramap_aging_sweeps_total",
				Help: "Total number of aging sweeps",
			},
			[]string{"result"}, // noop, aged, failed
		),
		RegionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "obramap_regions_created_total",
			Help: "Total number of regions drawn and saved",
		}),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obramap_login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"},
		),
		UsersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "obramap_users_registered_total",
			Help: "Total number of accounts created",
		}),
		Uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obramap_uploads_total",
				Help: "Total number of files uploaded to the blob store",
			},
			[]string{"kind"}, // fotos, propostas
		),
		ExportsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "obramap_exports_created_total",
			Help: "Total number of workbook exports",
		}),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/obras/:id

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordSweep counts one aging sweep and the obras it aged
func (m *Metrics) RecordSweep(aged int, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.AgingSweeps.WithLabelValues("failed").Inc()
	case aged == 0:
		m.AgingSweeps.WithLabelValues("noop").Inc()
	default:
		m.AgingSweeps.WithLabelValues("aged").Inc()
		m.LeadsAged.Add(float64(aged))
	}
}

// RecordRegionCreated increments regions created counter
func (m *Metrics) RecordRegionCreated() {
	if m == nil {
		return
	}
	m.RegionsCreated.Inc()
}

// RecordLoginAttempt increments login attempts counter
func (m *Metrics) RecordLoginAttempt(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

// RecordUserRegistered increments users registered counter
func (m *Metrics) RecordUserRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

// RecordUpload increments uploads counter for kind
func (m *Metrics) RecordUpload(kind string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(kind).Inc()
}

// RecordExportCreated increments exports created counter
func (m *Metrics) RecordExportCreated() {
	if m == nil {
		return
	}
	m.ExportsCreated.Inc()
}
