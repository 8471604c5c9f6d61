package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeBadRequest   = "BAD_REQUEST"

	// Authentication
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	ErrCodeWeakPassword       = "WEAK_PASSWORD"
	ErrCodeEmailInUse         = "EMAIL_IN_USE"
	ErrCodeUserDisabled       = "USER_DISABLED"
	ErrCodeInvalidEmail       = "INVALID_EMAIL"

	// Remote stores
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeUnavailable      = "UNAVAILABLE"
)

// Error constructors

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(msg string) error {
	return &DomainError{
		Code:    ErrCodeBadRequest,
		Message: msg,
	}
}

// NewAuthError creates an authentication error with one of the auth codes.
func NewAuthError(code string) error {
	return &DomainError{
		Code:    code,
		Message: UserMessage(code),
	}
}

// NewPermissionDeniedError wraps a store rejection the client cannot resolve.
func NewPermissionDeniedError(err error) error {
	return &DomainError{
		Code:    ErrCodePermissionDenied,
		Message: "permission denied by the document store",
		Err:     err,
	}
}

// NewUnavailableError wraps a network or transient failure of a remote call.
func NewUnavailableError(err error) error {
	return &DomainError{
		Code:    ErrCodeUnavailable,
		Message: "remote service unavailable",
		Err:     err,
	}
}

// Helper functions to check error types

func hasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool { return hasCode(err, ErrCodeUnauthorized) }

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool { return hasCode(err, ErrCodeForbidden) }

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool { return hasCode(err, ErrCodeInternal) }

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsBadRequest checks if the error is a bad request error
func IsBadRequest(err error) bool { return hasCode(err, ErrCodeBadRequest) }

// IsPermissionDenied checks if the error is a document store permission error
func IsPermissionDenied(err error) bool { return hasCode(err, ErrCodePermissionDenied) }

// IsUnavailable checks if the error is a transient remote failure
func IsUnavailable(err error) bool { return hasCode(err, ErrCodeUnavailable) }

// IsAuthError reports whether err belongs to the authentication family.
func IsAuthError(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeInvalidCredentials, ErrCodeEmailNotVerified, ErrCodeWeakPassword,
		ErrCodeEmailInUse, ErrCodeUserDisabled, ErrCodeInvalidEmail:
		return true
	}
	return false
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}
