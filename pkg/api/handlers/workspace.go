package handlers

import (
	"net/http"

	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/workspace"
	"github.com/labstack/echo/v4"
)

// WorkspaceHandler serves the initial load.
type WorkspaceHandler struct {
	workspace *workspace.Service
	lifecycle *leadlifecycle.Service
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(ws *workspace.Service, lifecycle *leadlifecycle.Service) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: ws, lifecycle: lifecycle}
}

// Load godoc
// @Summary Load obras, regions and the month's goals, aging stale leads once
// @Tags Workspace
// @Produce json
// @Security BearerAuth
// @Success 200 {object} workspace.Snapshot
// @Router /workspace [get]
func (h *WorkspaceHandler) Load(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	snap, err := h.workspace.Load(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// Sweep runs the aging rule on demand.
// @Router /workspace/sweep [post]
func (h *WorkspaceHandler) Sweep(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.lifecycle.SweepUser(ctx, sess.UserID)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
