package handlers

import (
	"log"
	"net/http"
	"strings"

	"citybites/internal/tools"
)

// PlacesSearchQuery holds the query parameters of a place search
type PlacesSearchQuery struct {
	City  string `validate:"required,max=200"`
	Query string `validate:"max=200"`
}

// HandleSearchPlaces handles GET /api/v1/places/search
func (h *Handler) HandleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	q := PlacesSearchQuery{
		City:  strings.TrimSpace(r.URL.Query().Get("city")),
		Query: strings.TrimSpace(r.URL.Query().Get("query")),
	}
	log.Printf("[HTTP] GET /api/v1/places/search: city=%q query=%q", q.City, q.Query)

	if err := validate.Struct(q); err != nil {
		h.handleStructError(w, err)
		return
	}

	result, err := h.Tools.Execute(r.Context(), tools.PlacesSearch{City: q.City, Query: q.Query})
	if err != nil {
		h.handleOperationError(w, err)
		return
	}

	found := result.Places
	log.Printf("[HTTP] GET /api/v1/places/search: source=%s results_count=%d", found.Source, len(found.Results))
	h.writeJSON(w, http.StatusOK, found)
}
