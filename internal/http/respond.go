// Package http is the REST surface of the planner: JSON handlers over
// the services layer, with tracing, rate limiting and response caching.
//
// This file implements the builder used by every handler to assemble a
// response: status, headers and a JSON body in one fluent chain.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"scenplan/internal/core"
	"scenplan/internal/services"
	"scenplan/internal/storage"
)

// JSONResponseBuilder assembles a JSON response. The zero body writes
// just the status, so 204-style responses use the same path.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a builder with default 200 status.
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

// Body sets the value marshalled as the JSON body.
func (b *JSONResponseBuilder) Body(payload any) *JSONResponseBuilder {
	b.payload = payload
	return b
}

// Write sends the built response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// validationErrs are domain errors surfaced as 422 rather than 500.
var validationErrs = []error{
	core.ErrEmptyName,
	core.ErrEmptyUnit,
	core.ErrEmptyCode,
	core.ErrNegativeQuantity,
	core.ErrNegativePrice,
	core.ErrNegativeCost,
	core.ErrInvalidFrequency,
	core.ErrInvalidMonth,
	core.ErrInvalidCategory,
	core.ErrInvalidHorizon,
	services.ErrNoActiveItems,
	services.ErrStageGated,
	services.ErrUnknownStage,
}

// FromError maps service and storage errors onto the right status:
// missing rows become 404, domain validation failures 422, anything
// else an opaque 500 with the detail kept in the logs.
func FromError(err error) *JSONResponseBuilder {
	if errors.Is(err, storage.ErrNotFound) {
		return NotFoundError("not found")
	}
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return UnprocessableEntityError(err.Error())
		}
	}
	return InternalServerError("internal error")
}
