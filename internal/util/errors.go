package util

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the domain error taxonomy. Every operation raises one of these
// eagerly; anything else is wrapped as an internal error before it reaches
// the transport layer.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func ValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "validation_error", Message: fmt.Sprintf(format, args...)}
}

func AuthorizationError(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "authorization_error", Message: fmt.Sprintf(format, args...)}
}

func ConflictError(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "conflict_error", Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "not_found", Message: fmt.Sprintf(format, args...)}
}

func CapacityError(format string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "capacity_error", Message: fmt.Sprintf(format, args...)}
}

// InternalError hides the cause from callers; the responder logs it.
func InternalError(cause error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error", cause: cause}
}

// AsAppError extracts an *AppError from err, wrapping unknown errors as
// internal so details never leak to the caller.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalError(err)
}
