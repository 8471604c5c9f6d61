// Package handlers exposes the services over the JSON API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/middleware"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds the service call of one request.
const RequestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), RequestTimeout)
}

// currentSession returns the authenticated session or writes a 401.
func currentSession(c echo.Context) (session.Session, error) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return session.Session{}, domain.NewUnauthorizedError()
	}
	return sess, nil
}

// bind decodes the body into req and validates it. It returns the response
// already written when the request is rejected, so callers return that.
func bind(c echo.Context, v *validator.Validate, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Corpo da requisição inválido.",
		})
	}
	if err := v.Struct(req); err != nil {
		return false, apierrors.ValidationError(c, err)
	}
	return true, nil
}

func success(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: msg})
}
