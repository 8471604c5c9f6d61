package handlers

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/dashboard"
	"github.com/jordanlanch/obramap/pkg/export"
	"github.com/jordanlanch/obramap/pkg/goals"
	"github.com/jordanlanch/obramap/pkg/metrics"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// GoalsHandler handles goals, the dashboard and the XLSX export.
type GoalsHandler struct {
	goals     *goals.Service
	obras     *obras.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewGoalsHandler creates a new goals handler
func NewGoalsHandler(goalsService *goals.Service, obraService *obras.Service, m *metrics.Metrics) *GoalsHandler {
	return &GoalsHandler{
		goals:     goalsService,
		obras:     obraService,
		metrics:   m,
		validator: validator.New(),
	}
}

// GoalsRequest replaces a month's goals.
type GoalsRequest struct {
	TotalSales decimal.Decimal                    `json:"vendasTotais"`
	Visits     int                                `json:"visitas" validate:"gte=0"`
	Calls      int                                `json:"ligacoes" validate:"gte=0"`
	ByPartner  map[models.Partner]decimal.Decimal `json:"porRepresentada"`
}

// monthParam reads a month from the query or path, defaulting to the current one.
func (h *GoalsHandler) monthParam(value string) (string, error) {
	if value == "" {
		return h.goals.Month(), nil
	}
	return goals.ParseMonth(value)
}

// ListMonths returns the months with goals.
// @Router /goals [get]
func (h *GoalsHandler) ListMonths(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	months, err := h.goals.ListMonths(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, months)
}

// Get returns a month's goals, creating zero targets when absent.
// @Router /goals/{month} [get]
func (h *GoalsHandler) Get(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	metas, err := h.goals.Get(ctx, sess, c.Param("month"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, metas)
}

// Update replaces a month's goals.
// @Router /goals/{month} [put]
func (h *GoalsHandler) Update(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req GoalsRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	metas, err := h.goals.Update(ctx, sess, models.Metas{
		ID:         c.Param("month"),
		TotalSales: req.TotalSales,
		Visits:     req.Visits,
		Calls:      req.Calls,
		ByPartner:  req.ByPartner,
	})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, metas)
}

func (h *GoalsHandler) figures(c echo.Context, sess session.Session) ([]models.Obra, dashboard.Figures, error) {
	month, err := h.monthParam(c.QueryParam("month"))
	if err != nil {
		return nil, dashboard.Figures{}, err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	all, err := h.obras.List(ctx, sess, obras.Filter{})
	if err != nil {
		return nil, dashboard.Figures{}, err
	}
	metas, err := h.goals.Get(ctx, sess, month)
	if err != nil {
		return nil, dashboard.Figures{}, err
	}
	return all, dashboard.Compute(all, *metas, month, h.goals.Location()), nil
}

// Dashboard godoc
// @Summary Month figures against goals
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Param mode query string false "absolute or percent"
// @Success 200 {object} dashboard.View
// @Router /dashboard [get]
func (h *GoalsHandler) Dashboard(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	_, figures, err := h.figures(c, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, dashboard.Render(figures, dashboard.ParseMode(c.QueryParam("mode"))))
}

// Export downloads the obras and the month's dashboard as XLSX.
// @Router /export.xlsx [get]
func (h *GoalsHandler) Export(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	all, figures, err := h.figures(c, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, all, figures); err != nil {
		return apierrors.Respond(c, err)
	}
	h.metrics.RecordExportCreated()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.Filename(figures.Month)+`"`)
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
