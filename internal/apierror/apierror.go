package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrPermissionDenied   ErrorCode = "PERMISSION_DENIED"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrFailedPrecondition ErrorCode = "FAILED_PRECONDITION"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
)

// APIError is the single error type that crosses component boundaries. Every
// caller-facing failure is one of these; raw storage or feed errors never
// leave the layer that produced them.
type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf extracts the error code, defaulting to internal for untyped errors.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

// Is reports whether err is an APIError with the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrUnauthenticated:
			return http.StatusUnauthorized
		case ErrPermissionDenied:
			return http.StatusForbidden
		case ErrInvalidInput:
			return http.StatusBadRequest
		case ErrNotFound:
			return http.StatusNotFound
		case ErrFailedPrecondition:
			return http.StatusUnprocessableEntity
		case ErrConflict:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
