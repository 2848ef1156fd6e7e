package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"citybites/internal/models"
	"citybites/internal/sqlite"
	"citybites/internal/tools"
)

// FingerprintHeader carries the id under which an optimization is recorded
const FingerprintHeader = "X-Route-Fingerprint"

// OptimizeRouteRequest represents the request for route optimization.
// The first point is the start of the route.
type OptimizeRouteRequest struct {
	Points []models.Point `json:"points" validate:"required"`
}

// RouteRunReader looks up recorded optimization runs
type RouteRunReader interface {
	Get(ctx context.Context, fingerprint string) (*sqlite.RouteRun, error)
}

// HandleOptimizeRoute handles POST /api/v1/routes/optimize
func (h *Handler) HandleOptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/routes/optimize: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body", nil)
		return
	}

	if err := validate.Struct(req); err != nil {
		h.handleStructError(w, err)
		return
	}

	maxPoints := h.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 300
	}
	if err := validate.Var(req.Points, fmt.Sprintf("max=%d", maxPoints)); err != nil {
		log.Printf("[HTTP] POST /api/v1/routes/optimize: too many points count=%d max=%d", len(req.Points), maxPoints)
		h.handleValidationError(w, fmt.Sprintf("At most %d points can be optimized per request.", maxPoints), nil)
		return
	}

	log.Printf("[HTTP] POST /api/v1/routes/optimize: points=%d", len(req.Points))

	op := tools.RouteOptimize{Points: req.Points}
	result, err := runWithContext(r.Context(), func() (*tools.Result, error) {
		return h.Tools.Execute(r.Context(), op)
	})
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/routes/optimize: failed err=%v", err)
		h.handleOperationError(w, err)
		return
	}

	route := result.Route
	log.Printf("[HTTP] POST /api/v1/routes/optimize: stops=%d distance_km=%.3f", len(route.Order), route.DistanceKm)
	w.Header().Set(FingerprintHeader, tools.Fingerprint(req.Points))
	h.writeJSON(w, http.StatusOK, route)
}

// HandleGetRouteRun handles GET /api/v1/routes/runs/{fingerprint}
func (h *Handler) HandleGetRouteRun(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if err := validate.Var(fingerprint, "required,uuid"); err != nil {
		h.handleValidationError(w, "Fingerprint must be a UUID", nil)
		return
	}

	if h.Runs == nil {
		h.handleInternalError(w, errors.New("route run history is not configured"))
		return
	}

	run, err := h.Runs.Get(r.Context(), fingerprint)
	if err != nil {
		h.handleOperationError(w, err)
		return
	}
	if run == nil {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "No optimization has been recorded for this fingerprint.", nil)
		return
	}

	log.Printf("[HTTP] GET /api/v1/routes/runs: fingerprint=%s runs=%d", run.Fingerprint, run.Runs)
	h.writeJSON(w, http.StatusOK, run)
}
