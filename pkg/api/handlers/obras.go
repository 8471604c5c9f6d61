package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// UploadTimeout bounds requests that move files.
const UploadTimeout = 60 * time.Second

// ObraHandler handles obra endpoints
type ObraHandler struct {
	obras     *obras.Service
	lifecycle *leadlifecycle.Service
	validator *validator.Validate
}

// NewObraHandler creates a new obra handler
func NewObraHandler(obraService *obras.Service, lifecycle *leadlifecycle.Service) *ObraHandler {
	return &ObraHandler{obras: obraService, lifecycle: lifecycle, validator: validator.New()}
}

// StageRequest moves an obra to another stage.
type StageRequest struct {
	Stage string `json:"etapa" validate:"required"`
}

// URLResponse carries a link for the client to open.
type URLResponse struct {
	URL string `json:"url"`
}

// List godoc
// @Summary List obras, optionally filtered
// @Tags Obras
// @Produce json
// @Security BearerAuth
// @Param etapa query string false "Stage"
// @Param fase query string false "Construction phase"
// @Param q query string false "Name or builder, accent-insensitive"
// @Success 200 {array} models.Obra
// @Router /obras [get]
func (h *ObraHandler) List(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.obras.List(ctx, sess, obras.Filter{
		Stage: c.QueryParam("etapa"),
		Phase: c.QueryParam("fase"),
		Query: c.QueryParam("q"),
	})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Create godoc
// @Summary Create an obra from a map tap or the manual form
// @Tags Obras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body obras.CreateObraRequest true "Obra"
// @Success 201 {object} models.Obra
// @Failure 400 {object} models.ErrorResponse
// @Router /obras [post]
func (h *ObraHandler) Create(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req obras.CreateObraRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.Create(ctx, sess, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, obra)
}

// Get returns one obra.
// @Router /obras/{id} [get]
func (h *ObraHandler) Get(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.Get(ctx, sess, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// Update edits the obra fields present in the body.
// @Router /obras/{id} [put]
func (h *ObraHandler) Update(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req obras.UpdateObraRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.Update(ctx, sess, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// ChangeStage moves the obra to any stage.
// @Router /obras/{id}/stage [patch]
func (h *ObraHandler) ChangeStage(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req StageRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.lifecycle.ChangeStage(ctx, sess, c.Param("id"), models.Stage(req.Stage))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// AddContact appends a contact.
// @Router /obras/{id}/contacts [post]
func (h *ObraHandler) AddContact(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req obras.ContactRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.AddContact(ctx, sess, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, obra)
}

// RemoveContact deletes a contact.
// @Router /obras/{id}/contacts/{itemId} [delete]
func (h *ObraHandler) RemoveContact(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.RemoveContact(ctx, sess, c.Param("id"), c.Param("itemId"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// AddTask schedules a task.
// @Router /obras/{id}/tasks [post]
func (h *ObraHandler) AddTask(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	var req obras.TaskRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.AddTask(ctx, sess, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, obra)
}

// CompleteTask marks a task done.
// @Router /obras/{id}/tasks/{itemId}/complete [post]
func (h *ObraHandler) CompleteTask(c echo.Context) error {
	return h.taskStatus(c, h.obras.CompleteTask)
}

// ReopenTask marks a task pending again.
// @Router /obras/{id}/tasks/{itemId}/reopen [post]
func (h *ObraHandler) ReopenTask(c echo.Context) error {
	return h.taskStatus(c, h.obras.ReopenTask)
}

// RemoveTask deletes a task.
// @Router /obras/{id}/tasks/{itemId} [delete]
func (h *ObraHandler) RemoveTask(c echo.Context) error {
	return h.taskStatus(c, h.obras.RemoveTask)
}

func (h *ObraHandler) taskStatus(c echo.Context, apply func(ctx context.Context, sess session.Session, obraID, taskID string) (*models.Obra, error)) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := apply(ctx, sess, c.Param("id"), c.Param("itemId"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// PendingTasks lists every pending task across the user's obras by due date.
// @Router /tasks/pending [get]
func (h *ObraHandler) PendingTasks(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	tasks, err := h.obras.PendingTasks(ctx, sess)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// AddProposal records a proposal. JSON bodies carry no attachment; a
// multipart form may add one in the "anexo" field.
// @Router /obras/{id}/proposals [post]
func (h *ObraHandler) AddProposal(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	var (
		req        obras.ProposalRequest
		attachment *obras.Upload
	)
	if isMultipart(c) {
		if req, attachment, err = proposalFromForm(c); err != nil {
			return apierrors.Respond(c, err)
		}
		if err := h.validator.Struct(req); err != nil {
			return apierrors.ValidationError(c, err)
		}
	} else if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	ctx, cancel := uploadContext(c)
	defer cancel()

	obra, err := h.obras.AddProposal(ctx, sess, c.Param("id"), req, attachment)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, obra)
}

// RemoveProposal deletes a proposal and its attachment.
// @Router /obras/{id}/proposals/{itemId} [delete]
func (h *ObraHandler) RemoveProposal(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := uploadContext(c)
	defer cancel()

	obra, err := h.obras.RemoveProposal(ctx, sess, c.Param("id"), c.Param("itemId"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// UpdatePhotos applies one photo edit: files in "fotos" are added and every
// "remove" value drops the photo with that reference path.
// @Router /obras/{id}/photos [post]
func (h *ObraHandler) UpdatePhotos(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apierrors.Respond(c, domain.NewBadRequestError("Envie as fotos como multipart/form-data."))
	}
	add := make([]obras.Upload, 0, len(form.File["fotos"]))
	for _, fh := range form.File["fotos"] {
		u, err := readUpload(fh, obras.MaxPhotoBytes)
		if err != nil {
			return apierrors.Respond(c, err)
		}
		add = append(add, u)
	}
	remove := form.Value["remove"]
	if len(add) == 0 && len(remove) == 0 {
		return apierrors.Respond(c, domain.NewValidationError("Nenhuma alteração de fotos enviada."))
	}

	ctx, cancel := uploadContext(c)
	defer cancel()

	obra, err := h.obras.UpdatePhotos(ctx, sess, c.Param("id"), add, remove)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, obra)
}

// FileURL resolves a stored photo or attachment into a download URL.
// @Router /obras/{id}/files/url [get]
func (h *ObraHandler) FileURL(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	ref := c.QueryParam("ref")
	if ref == "" {
		return apierrors.Respond(c, domain.NewValidationError("Informe o arquivo."))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	url, err := h.obras.DownloadURL(ctx, sess, models.Foto{RefPath: ref})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, URLResponse{URL: url})
}

// Directions returns the navigation link to the obra.
// @Router /obras/{id}/directions [get]
func (h *ObraHandler) Directions(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	obra, err := h.obras.Get(ctx, sess, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, URLResponse{URL: mapeditor.DirectionsURL(*obra)})
}

func uploadContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), UploadTimeout)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func readUpload(fh *multipart.FileHeader, limit int64) (obras.Upload, error) {
	if fh.Size > limit {
		return obras.Upload{}, domain.NewValidationError(fmt.Sprintf("O arquivo %s excede o tamanho máximo.", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return obras.Upload{}, domain.NewBadRequestError("Não foi possível ler o arquivo enviado.")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return obras.Upload{}, domain.NewBadRequestError("Não foi possível ler o arquivo enviado.")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	return obras.Upload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

func proposalFromForm(c echo.Context) (obras.ProposalRequest, *obras.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return obras.ProposalRequest{}, nil, domain.NewBadRequestError("Formulário inválido.")
	}

	req := obras.ProposalRequest{
		Partner:  c.FormValue("representada"),
		Products: form.Value["produtos"],
	}
	if v := c.FormValue("valor"); v != "" {
		if req.Value, err = decimal.NewFromString(strings.Replace(v, ",", ".", 1)); err != nil {
			return req, nil, domain.NewValidationError("Valor da proposta inválido.")
		}
	}
	if d := c.FormValue("data"); d != "" {
		if req.Date, err = time.Parse(models.DateLayout, d); err != nil {
			return req, nil, domain.NewValidationError("Data da proposta inválida. Use o formato AAAA-MM-DD.")
		}
	}

	files := form.File["anexo"]
	if len(files) == 0 {
		return req, nil, nil
	}
	u, err := readUpload(files[0], obras.MaxAttachmentBytes)
	if err != nil {
		return req, nil, err
	}
	return req, &u, nil
}
