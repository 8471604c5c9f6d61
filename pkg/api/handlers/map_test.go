package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = models.LatLng{Lat: -23.5505, Lng: -46.6333}

func TestMapHandler_Drawing(t *testing.T) {
	f := setup(t)
	h := NewMapHandler(f.regions, f.obras, saoPaulo, time.UTC)

	t.Run("Success - idle tap prefills a lead", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/taps", map[string]float64{"lat": -23.5, "lng": -46.6})
		require.NoError(t, h.Tap(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var out mapeditor.TapOutcome
		decode(t, rec, &out)
		assert.Equal(t, mapeditor.TapOpenLeadForm, out.Kind)
		require.NotNil(t, out.Prefill)
		assert.Equal(t, models.StageLead, out.Prefill.Stage)
	})

	t.Run("Success - three taps make a region", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/drawing", nil)
		require.NoError(t, h.BeginDrawing(c))
		require.Equal(t, http.StatusOK, rec.Code)

		for _, p := range []models.LatLng{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}, {Lat: 2, Lng: 2}} {
			c, rec := f.request(http.MethodPost, "/api/v1/map/taps", p)
			require.NoError(t, h.Tap(c))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		c, rec = f.request(http.MethodPost, "/api/v1/map/drawing/save", nil)
		require.NoError(t, h.SaveDrawing(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp SaveDrawingResponse
		decode(t, rec, &resp)
		require.NotNil(t, resp.Region)
		assert.Len(t, resp.Region.Points, 3)
		assert.False(t, resp.Discarded)
	})

	t.Run("Success - too few points are discarded", func(t *testing.T) {
		c, _ := f.request(http.MethodPost, "/api/v1/map/drawing", nil)
		require.NoError(t, h.BeginDrawing(c))
		c, _ = f.request(http.MethodPost, "/api/v1/map/taps", models.LatLng{Lat: 3, Lng: 3})
		require.NoError(t, h.Tap(c))

		c, rec := f.request(http.MethodPost, "/api/v1/map/drawing/save", nil)
		require.NoError(t, h.SaveDrawing(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SaveDrawingResponse
		decode(t, rec, &resp)
		assert.True(t, resp.Discarded)
		assert.Nil(t, resp.Region)
	})

	t.Run("Success - cancel returns to idle", func(t *testing.T) {
		c, _ := f.request(http.MethodPost, "/api/v1/map/drawing", nil)
		require.NoError(t, h.BeginDrawing(c))

		c, rec := f.request(http.MethodDelete, "/api/v1/map/drawing", nil)
		require.NoError(t, h.CancelDrawing(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		c, rec = f.request(http.MethodGet, "/api/v1/map/drawing", nil)
		require.NoError(t, h.CurrentDrawing(c))
		var d mapeditor.Drawing
		decode(t, rec, &d)
		assert.Equal(t, mapeditor.ModeIdle, d.Mode)
	})
}

func TestMapHandler_Regions(t *testing.T) {
	f := setup(t)
	h := NewMapHandler(f.regions, f.obras, saoPaulo, time.UTC)

	c, rec := f.request(http.MethodPost, "/api/v1/map/regions", RegionRequest{Points: []models.LatLng{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}, {Lat: 2, Lng: 2}}})
	require.NoError(t, h.CreateRegion(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var region models.Region
	decode(t, rec, &region)
	assert.Equal(t, models.RegionPalette[0], region.Color)

	t.Run("Error - two points", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/regions", RegionRequest{Points: []models.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}})
		require.NoError(t, h.CreateRegion(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Error - delete without confirmation", func(t *testing.T) {
		c, rec := f.request(http.MethodDelete, "/api/v1/map/regions/"+region.ID, nil)
		require.NoError(t, h.DeleteRegion(withParams(c, "id", region.ID)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Success - confirmed delete", func(t *testing.T) {
		c, rec := f.request(http.MethodDelete, "/api/v1/map/regions/"+region.ID+"?confirm=true", nil)
		require.NoError(t, h.DeleteRegion(withParams(c, "id", region.ID)))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		c, rec = f.request(http.MethodGet, "/api/v1/map/regions", nil)
		require.NoError(t, h.ListRegions(c))
		var regions []models.Region
		decode(t, rec, &regions)
		assert.Empty(t, regions)
	})
}

func TestMapHandler_Routes(t *testing.T) {
	f := setup(t)
	h := NewMapHandler(f.regions, f.obras, saoPaulo, time.UTC)
	first := f.createObra(t, "Residencial Aurora")
	second := f.createObra(t, "Edifício Ipê")
	f.visitToday(t, second.ID)

	t.Run("Success - today's visits", func(t *testing.T) {
		c, rec := f.request(http.MethodGet, "/api/v1/map/route/today", nil)
		require.NoError(t, h.TodayRoute(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var route mapeditor.Route
		decode(t, rec, &route)
		assert.Equal(t, []string{second.ID}, route.ObraIDs)
	})

	t.Run("Success - caller order is kept", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/route", RouteRequest{ObraIDs: []string{second.ID, first.ID}})
		require.NoError(t, h.BuildRoute(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var route mapeditor.Route
		decode(t, rec, &route)
		assert.Equal(t, []string{second.ID, first.ID}, route.ObraIDs)
		assert.Len(t, route.Points, 2)
	})

	t.Run("Success - empty list clears", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/route", RouteRequest{})
		require.NoError(t, h.BuildRoute(c))
		var route mapeditor.Route
		decode(t, rec, &route)
		assert.True(t, route.Empty())
	})
}

func TestMapHandler_TodayRouteUsesBusinessDay(t *testing.T) {
	f := setup(t)
	brt := time.FixedZone("BRT", -3*60*60)
	h := NewMapHandler(f.regions, f.obras, saoPaulo, brt)
	h.now = func() time.Time { return time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC) }

	o := f.createObra(t, "Galpão Contagem")
	_, err := f.obras.AddTask(context.Background(), testSession, o.ID, obras.TaskRequest{
		Title: "Visita no fim do dia",
		Due:   time.Date(2024, 3, 31, 22, 0, 0, 0, brt),
		Type:  string(models.TaskVisit),
	})
	require.NoError(t, err)

	c, rec := f.request(http.MethodGet, "/api/v1/map/route/today", nil)
	require.NoError(t, h.TodayRoute(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var route mapeditor.Route
	decode(t, rec, &route)
	assert.Equal(t, []string{o.ID}, route.ObraIDs)
}

func TestMapHandler_Centering(t *testing.T) {
	f := setup(t)
	h := NewMapHandler(f.regions, f.obras, saoPaulo, time.UTC)

	t.Run("Success - denied falls back silently", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/center", mapeditor.PositionReport{Status: mapeditor.PositionDenied})
		require.NoError(t, h.Center(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var center mapeditor.Center
		decode(t, rec, &center)
		assert.True(t, center.Fallback)
		assert.Equal(t, saoPaulo, center.LatLng)
	})

	t.Run("Success - live position", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/recenter", mapeditor.PositionReport{Status: mapeditor.PositionOK, Lat: -19.9, Lng: -43.9})
		require.NoError(t, h.Recenter(c))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "-19.9")
	})

	t.Run("Error - recenter reports the failure", func(t *testing.T) {
		c, rec := f.request(http.MethodPost, "/api/v1/map/recenter", mapeditor.PositionReport{Status: mapeditor.PositionUnavailable})
		require.NoError(t, h.Recenter(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), mapeditor.RecenterFailedMessage)
	})
}
