// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a ServiceError.
type Code string

const (
	CodeValidation  Code = "validation_error"
	CodeNotFound    Code = "not_found"
	CodeInternal    Code = "internal_error"
	CodeRateLimited Code = "rate_limited"
)

// internalMessage is the only text ever returned to clients for internal failures.
const internalMessage = "Internal server error"

// ServiceError is a failure raised by the core with a client-safe message.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Validation reports a missing or malformed input field.
func Validation(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusBadRequest}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusNotFound}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: internalMessage, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// RateLimitExceeded reports a caller that exhausted its request budget.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// As extracts a ServiceError from err. Errors that are not ServiceErrors are
// treated as internal failures.
func As(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		return svcErr
	}
	return Internal(err)
}

// PublicMessage returns the text safe to show a client.
func (e *ServiceError) PublicMessage() string {
	if e.Code == CodeInternal {
		return internalMessage
	}
	return e.Message
}
