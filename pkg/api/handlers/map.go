package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/labstack/echo/v4"
)

// MapHandler handles regions, the drawing session, routes and centering.
type MapHandler struct {
	regions   *mapeditor.RegionService
	obras     *obras.Service
	fallback  models.LatLng
	loc       *time.Location
	validator *validator.Validate
	now       func() time.Time
}

// NewMapHandler creates a new map handler. fallback is the configured
// default center; loc decides which calendar day "today" is.
func NewMapHandler(regions *mapeditor.RegionService, obraService *obras.Service, fallback models.LatLng, loc *time.Location) *MapHandler {
	return &MapHandler{
		regions:   regions,
		obras:     obraService,
		fallback:  fallback,
		loc:       loc,
		validator: validator.New(),
		now:       time.Now,
	}
}

// RegionRequest creates a region from explicit points.
type RegionRequest struct {
	Points []models.LatLng `json:"points" validate:"required"`
}

// TapRequest is one map tap.
type TapRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// RouteRequest lists obras to visit, in order.
type RouteRequest struct {
	ObraIDs []string `json:"obraIds" validate:"required"`
}

// SaveDrawingResponse is nil Region when the drawing had too few points.
type SaveDrawingResponse struct {
	Region    *models.Region `json:"region"`
	Discarded bool           `json:"discarded"`
}

// ListRegions returns the user's regions.
// @Router /map/regions [get]
func (h *MapHandler) ListRegions(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	regions, err := h.regions.List(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, regions)
}

// CreateRegion godoc
// @Summary Persist a polygon; at least three points
// @Tags Map
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Region
// @Failure 400 {object} models.ErrorResponse
// @Router /map/regions [post]
func (h *MapHandler) CreateRegion(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req RegionRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	region, err := h.regions.Create(ctx, sess, req.Points)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, region)
}

// DeleteRegion removes a region. The client must pass confirm=true.
// @Router /map/regions/{id} [delete]
func (h *MapHandler) DeleteRegion(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.regions.Delete(ctx, sess, c.Param("id"), confirmed); err != nil {
		return apierrors.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CurrentDrawing returns the drawing state.
// @Router /map/drawing [get]
func (h *MapHandler) CurrentDrawing(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.regions.CurrentDrawing(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// BeginDrawing enters drawing mode.
// @Router /map/drawing [post]
func (h *MapHandler) BeginDrawing(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.regions.BeginDrawing(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Tap feeds a tap to the drawing machine. In idle mode the answer is a
// prefill for the new-obra form.
// @Router /map/taps [post]
func (h *MapHandler) Tap(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req TapRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.regions.Tap(ctx, sess, models.LatLng{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// SaveDrawing persists the drawing when it has enough points.
// @Router /map/drawing/save [post]
func (h *MapHandler) SaveDrawing(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	region, err := h.regions.SaveDrawing(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	if region == nil {
		return c.JSON(http.StatusOK, SaveDrawingResponse{Discarded: true})
	}
	return c.JSON(http.StatusCreated, SaveDrawingResponse{Region: region})
}

// CancelDrawing discards the drawing.
// @Router /map/drawing [delete]
func (h *MapHandler) CancelDrawing(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.regions.CancelDrawing(ctx, sess); err != nil {
		return apierrors.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TodayRoute builds the route through today's visits.
// @Router /map/route/today [get]
func (h *MapHandler) TodayRoute(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	all, err := h.obras.List(ctx, sess, obras.Filter{})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, mapeditor.BuildRoute(mapeditor.TodayVisits(all, h.now(), h.loc)))
}

// BuildRoute draws a route through the given obras in the given order. An
// empty list clears the route.
// @Router /map/route [post]
func (h *MapHandler) BuildRoute(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req RouteRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.Respond(c, domain.NewBadRequestError("Corpo da requisição inválido."))
	}
	if len(req.ObraIDs) == 0 {
		return c.JSON(http.StatusOK, mapeditor.ClearRoute())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stops := make([]models.Obra, 0, len(req.ObraIDs))
	for _, id := range req.ObraIDs {
		o, err := h.obras.Get(ctx, sess, id)
		if err != nil {
			return apierrors.Respond(c, err)
		}
		stops = append(stops, *o)
	}
	return c.JSON(http.StatusOK, mapeditor.BuildRoute(stops))
}

// Center resolves the initial map center, falling back silently.
// @Router /map/center [post]
func (h *MapHandler) Center(c echo.Context) error {
	var report mapeditor.PositionReport
	if err := c.Bind(&report); err != nil {
		report = mapeditor.PositionReport{Status: mapeditor.PositionUnavailable}
	}
	return c.JSON(http.StatusOK, mapeditor.ResolveCenter(report, h.fallback))
}

// Recenter pans to the live position or reports why it cannot.
// @Router /map/recenter [post]
func (h *MapHandler) Recenter(c echo.Context) error {
	var report mapeditor.PositionReport
	if err := c.Bind(&report); err != nil {
		return apierrors.Respond(c, domain.NewBadRequestError(mapeditor.RecenterFailedMessage))
	}
	center, err := mapeditor.Recenter(report)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, center)
}
