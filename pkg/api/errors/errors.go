// Package errors turns service errors into JSON responses. Internal details
// are logged and never reach the client.
package errors

import (
	"net/http"
	"strings"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/obramap/pkg/domain"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/labstack/echo/v4"
)

var log = logger.Default()

// SetLogger replaces the logger used for server-side failures.
func SetLogger(l logger.Logger) {
	if l != nil {
		log = l
	}
}

// Status maps an error to its HTTP status.
func Status(err error) int {
	switch domain.GetErrorCode(err) {
	case domain.ErrCodeValidation, domain.ErrCodeBadRequest,
		domain.ErrCodeWeakPassword, domain.ErrCodeInvalidEmail:
		return http.StatusBadRequest
	case domain.ErrCodeUnauthorized, domain.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case domain.ErrCodeForbidden, domain.ErrCodePermissionDenied,
		domain.ErrCodeEmailNotVerified, domain.ErrCodeUserDisabled:
		return http.StatusForbidden
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeConflict, domain.ErrCodeEmailInUse:
		return http.StatusConflict
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as an ErrorResponse. The message is the localized
// user-facing text for the error code.
func Respond(c echo.Context, err error) error {
	status := Status(err)
	code := domain.GetErrorCode(err)

	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Request().Method, "path", c.Request().URL.Path, "code", code, "error", err)
		if hub := sentryecho.GetHubFromContext(c); hub != nil && status != http.StatusServiceUnavailable {
			hub.CaptureException(err)
		}
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   strings.ToLower(code),
		Message: domain.UserMessageFor(err),
	})
}

// ValidationError answers a request whose body or parameters failed binding
// or struct validation.
func ValidationError(c echo.Context, err error) error {
	log.Debug("request validation failed", "path", c.Request().URL.Path, "error", err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Dados inválidos. Verifique os campos e tente novamente.",
	})
}

// UnauthorizedError answers a request without a usable session.
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: domain.UserMessage(domain.ErrCodeUnauthorized),
	})
}
