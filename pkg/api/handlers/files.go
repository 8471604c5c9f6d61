package handlers

import (
	"os"
	"path"
	"strings"

	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/blob"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/labstack/echo/v4"
)

// FilesHandler serves locally stored photos and attachments to their owner.
type FilesHandler struct {
	local *blob.LocalStore
}

// NewFilesHandler creates a new files handler
func NewFilesHandler(local *blob.LocalStore) *FilesHandler {
	return &FilesHandler{local: local}
}

// Serve streams a stored file. Only paths under users/{uid}/ of the caller
// are served.
// @Router /files/{path} [get]
func (h *FilesHandler) Serve(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ref := strings.TrimPrefix(path.Clean("/"+c.Param("*")), "/")
	if !blob.OwnedBy(models.Foto{RefPath: ref}, sess.UserID) {
		return apierrors.Respond(c, domain.NewForbiddenError("Arquivo de outro usuário."))
	}

	full, err := h.local.Path(ref)
	if err != nil {
		return apierrors.Respond(c, domain.NewForbiddenError("Arquivo de outro usuário."))
	}
	if _, err := os.Stat(full); err != nil {
		return apierrors.Respond(c, domain.NewNotFoundError("arquivo"))
	}
	return c.File(full)
}
