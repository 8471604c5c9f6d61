package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jordanlanch/obramap/pkg/blob"
	"github.com/jordanlanch/obramap/pkg/cache"
	"github.com/jordanlanch/obramap/pkg/goals"
	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/middleware"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/jordanlanch/obramap/pkg/phone"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/jordanlanch/obramap/pkg/store/storetest"
	"github.com/jordanlanch/obramap/pkg/workspace"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testSession = session.Session{UserID: "user-1", Email: "maria@example.com", Name: "Maria"}

type fixture struct {
	e         *echo.Echo
	ds        store.DocumentStore
	cache     *cache.Client
	metrics   *metrics.Metrics
	local     *blob.LocalStore
	obras     *obras.Service
	lifecycle *leadlifecycle.Service
	goals     *goals.Service
	regions   *mapeditor.RegionService
	workspace *workspace.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := cache.NewClient("redis://"+mr.Addr(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	blobs, err := blob.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	ds := storetest.NewSQLite(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	log := logger.Discard()

	f := &fixture{e: echo.New(), ds: ds, cache: client, metrics: m, local: blobs}
	f.obras = obras.NewService(ds, blobs, phone.NewNormalizer("BR"), m, log)
	f.lifecycle = leadlifecycle.NewService(ds, leadlifecycle.DefaultThreshold, m, log)
	f.goals = goals.NewService(ds, log)
	f.regions = mapeditor.NewRegionService(ds, mapeditor.NewSessionStore(client), m, log)
	f.workspace = workspace.NewService(ds, f.goals, f.lifecycle, f.regions, log)
	return f
}

// request builds a context for an authenticated call. body may be nil, a
// string or any value to encode as JSON.
func (f *fixture) request(method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	middleware.WithSession(c, testSession)
	return c, rec
}

// anonymous builds a context with no session.
func (f *fixture) anonymous(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return f.e.NewContext(req, rec), rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	names := make([]string, 0, len(kv)/2)
	values := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func (f *fixture) createObra(t *testing.T, name string) *models.Obra {
	t.Helper()
	o, err := f.obras.Create(context.Background(), testSession, obras.CreateObraRequest{
		Name:    name,
		Builder: "Construtora Horizonte",
		Lat:     -23.55,
		Lng:     -46.63,
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) visitToday(t *testing.T, obraID string) {
	t.Helper()
	_, err := f.obras.AddTask(context.Background(), testSession, obraID, obras.TaskRequest{
		Title: "Visitar obra",
		Due:   time.Now(),
		Type:  string(models.TaskVisit),
	})
	require.NoError(t, err)
}
