package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"citybites/internal/export"
	"citybites/internal/fetch"
	"citybites/internal/geocoding"
	"citybites/internal/places"
	"citybites/internal/routing"
	"citybites/internal/tools"
)

// HealthChecker reports whether a backing store is usable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Tools     *tools.Executor
	Geocoder  geocoding.Geocoder
	Store     HealthChecker
	Runs      RouteRunReader
	MaxPoints int
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(w http.ResponseWriter, message string, details interface{}) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// handleStructError converts validator errors into a 400 response
func (h *Handler) handleStructError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.handleValidationError(w, err.Error(), nil)
		return
	}

	details := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		details[i] = FieldError{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()}
	}
	h.handleValidationError(w, "Request failed validation", details)
}

// handleOperationError maps domain errors to HTTP responses
func (h *Handler) handleOperationError(w http.ResponseWriter, err error) {
	var invalidInput *routing.InvalidInputError
	var invalidExport *export.ErrInvalidExport
	var geoErr *geocoding.ErrGeocodingFailed
	var overpassErr *places.ErrOverpassFailed
	var statusErr *fetch.StatusError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "The request took too long to complete.", nil)
	case errors.As(err, &invalidInput):
		details := map[string]interface{}{"reason": invalidInput.Reason}
		if invalidInput.Index >= 0 {
			details["index"] = invalidInput.Index
		}
		h.writeError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", invalidInput.Error(), details)
	case errors.As(err, &invalidExport):
		h.writeError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", invalidExport.Error(), nil)
	case errors.Is(err, places.ErrMissingCity):
		h.handleValidationError(w, err.Error(), nil)
	case errors.As(err, &geoErr), errors.As(err, &overpassErr), errors.As(err, &statusErr):
		log.Printf("[ERROR] Upstream failure: %v", err)
		h.writeError(w, http.StatusBadGateway, "UPSTREAM_FAILED", err.Error(), nil)
	default:
		h.handleInternalError(w, err)
	}
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	log.Printf("[ERROR] Internal error: %v", err)
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// runWithContext runs fn in its own goroutine and gives up when ctx is done.
// fn itself keeps running to completion.
func runWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn()
		done <- outcome{val: v, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "database": "ok"}
	if h.Store != nil {
		if err := h.Store.HealthCheck(r.Context()); err != nil {
			log.Printf("[ERROR] Health check failed: %v", err)
			status["status"] = "degraded"
			status["database"] = err.Error()
			h.writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	h.writeJSON(w, http.StatusOK, status)
}
