// Package domainerrors defines the coded error type shared by all modules.
//
// Services return these errors so transport code can translate them into
// HTTP responses without inspecting error strings. Infrastructure layers
// return pkg/platform/sentinel errors instead; services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for API translation and logging.
type Code string

const (
	CodeValidation          Code = "validation_error"
	CodeBadRequest          Code = "bad_request"
	CodeConflict            Code = "conflict"
	CodeDuplicate           Code = "duplicate_roll_number"
	CodeNotFound            Code = "not_found"
	CodeUnauthorized        Code = "unauthorized"
	CodePermissionDenied    Code = "permission_denied"
	CodeFileTooLarge        Code = "file_too_large"
	CodeUnsupportedFileType Code = "unsupported_file_type"
	CodeUnavailable         Code = "unavailable"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeInternal            Code = "internal_error"
)

// Error is a coded domain error. Field is set for per-field validation
// failures so the UI can highlight the offending input.
type Error struct {
	Code    Code
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewField constructs a validation error tied to a specific field.
func NewField(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldOf returns the field name for field-level validation errors.
func FieldOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicate:
		return http.StatusConflict
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
