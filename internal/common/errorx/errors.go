package errorx

import (
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable error kind carried by every error
// response.
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindMFARequired       Kind = "mfa_required"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindRateLimited       Kind = "rate_limited"
	KindRemoteTimeout     Kind = "remote_service_timeout"
	KindRemoteError       Kind = "remote_service_error"
	KindInternal          Kind = "internal"
)

// APIError is a structured error carried through handlers to the HTTP
// surface. Internal errors never expose their details to callers.
type APIError struct {
	Kind       Kind           `json:"kind"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// WithDetail adds a detail to a copy of the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	clone := *e
	clone.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

var (
	ErrValidation = &APIError{
		Kind:       KindValidation,
		Message:    "invalid input provided",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &APIError{
		Kind:       KindUnauthorized,
		Message:    "authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &APIError{
		Kind:       KindUnauthorized,
		Message:    "invalid credentials provided",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbidden = &APIError{
		Kind:       KindForbidden,
		Message:    "insufficient permissions to perform this action",
		HTTPStatus: http.StatusForbidden,
	}

	ErrMFARequired = &APIError{
		Kind:       KindMFARequired,
		Message:    "a recent MFA challenge is required for this action",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &APIError{
		Kind:       KindNotFound,
		Message:    "requested resource not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrConflict = &APIError{
		Kind:       KindConflict,
		Message:    "resource was modified by another request",
		HTTPStatus: http.StatusConflict,
	}

	ErrInvalidTransition = &APIError{
		Kind:       KindInvalidTransition,
		Message:    "loan status transition is not permitted",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrRateLimited = &APIError{
		Kind:       KindRateLimited,
		Message:    "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrRemoteTimeout = &APIError{
		Kind:       KindRemoteTimeout,
		Message:    "remote service timed out",
		HTTPStatus: http.StatusGatewayTimeout,
	}

	ErrRemoteError = &APIError{
		Kind:       KindRemoteError,
		Message:    "remote service failed",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrInternal = &APIError{
		Kind:       KindInternal,
		Message:    "internal server error occurred",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// NotFoundError builds a not-found error for a resource. An entity that
// is absent and an entity owned by another tenant produce the same
// payload so callers cannot probe tenant boundaries.
func NotFoundError(resource string) *APIError {
	return ErrNotFound.WithDetail("resource", resource)
}

// ValidationError builds a validation error for a specific field.
func ValidationError(field, reason string) *APIError {
	return ErrValidation.WithDetail("field", field).WithDetail("reason", reason)
}

// InvalidTransitionError reports a rejected loan status transition.
func InvalidTransitionError(from, to string) *APIError {
	return ErrInvalidTransition.WithDetail("from", from).WithDetail("to", to)
}

// RateLimitedError carries the retry hint required by the rate limiter
// contract.
func RateLimitedError(retryAfterSeconds int) *APIError {
	return ErrRateLimited.WithDetail("retry_after_seconds", retryAfterSeconds)
}
