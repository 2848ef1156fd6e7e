package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"citybites/internal/export"
	"citybites/internal/models"
	"citybites/internal/tools"
)

// ExportMapRequest represents the request for a map export
type ExportMapRequest struct {
	Places []models.Place      `json:"places" validate:"required,min=1,dive"`
	Format string              `json:"format" validate:"required"`
	Route  *models.RouteResult `json:"route,omitempty"`
	// Optimize sequences the places when no route is given
	Optimize bool `json:"optimize,omitempty"`
}

// HandleExportMap handles POST /api/v1/maps/export.
// With ?download=1 the file is sent as an attachment instead of JSON.
func (h *Handler) HandleExportMap(w http.ResponseWriter, r *http.Request) {
	var req ExportMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[HTTP] POST /api/v1/maps/export: invalid_json err=%v", err)
		h.handleValidationError(w, "Invalid request body", nil)
		return
	}

	if err := validate.Struct(req); err != nil {
		h.handleStructError(w, err)
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.handleValidationError(w, err.Error(), nil)
		return
	}

	log.Printf("[HTTP] POST /api/v1/maps/export: format=%s places=%d route=%t optimize=%t", format, len(req.Places), req.Route != nil, req.Optimize)

	result, err := h.Tools.Execute(r.Context(), tools.MapsExport{
		Places:   req.Places,
		Format:   format,
		Route:    req.Route,
		Optimize: req.Optimize,
	})
	if err != nil {
		h.handleOperationError(w, err)
		return
	}

	file := result.Export

	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Type", file.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(file.Content))
		return
	}

	h.writeJSON(w, http.StatusOK, file)
}
