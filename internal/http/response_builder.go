// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"flux/internal/core"
	"flux/internal/identity"
	applog "flux/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Cookie adds a Set-Cookie header.
func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Body sets the value encoded as the response body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// Error codes carried in error bodies.
const (
	CodeValidation      = "validation_error"
	CodeUnauthenticated = "unauthenticated"
	CodeConflict        = "conflict"
	CodeNotFound        = "not_found"
	CodeStoreFailure    = "store_unavailable"
	CodeRateLimited     = "rate_limited"
	CodeBadRequest      = "bad_request"
	CodeInternal        = "internal_error"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

// ValidationErrorResponse creates a 422 response naming the rejected field.
func ValidationErrorResponse(field, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: errorDetail{Code: CodeValidation, Message: message, Field: field}})
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

// UnauthorizedError creates a 401 response.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, CodeUnauthenticated, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// ErrorFor maps a service error to its response. Store and internal failures
// get a generic message; the details only go to the log.
func ErrorFor(err error) *JSONResponseBuilder {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return ValidationErrorResponse(ve.Field, ve.Message)
	case errors.Is(err, core.ErrUnauthenticated), errors.Is(err, identity.ErrInvalidToken):
		return UnauthorizedError("authentication required")
	case errors.Is(err, identity.ErrInvalidCredentials):
		return UnauthorizedError(identity.ErrInvalidCredentials.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		return ErrorResponse(http.StatusConflict, CodeConflict, identity.ErrEmailTaken.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("expense not found")
	case core.IsStoreFailure(err), errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(http.StatusBadGateway, CodeStoreFailure, "expense store unavailable, please retry")
	default:
		return InternalServerError("internal error")
	}
}

// writeError logs err at a level matching its status and writes the response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	logger := applog.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, op, nil)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldStatusCode, resp.statusCode,
			applog.FieldError, err.Error())
	}
	resp.Write(w)
}
