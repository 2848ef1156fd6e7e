package handlers

import (
	"log"
	"net/http"
	"strings"
)

// HandleAddressSearch handles GET /api/v1/address-search
func (h *Handler) HandleAddressSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("address"))
	log.Printf("[HTTP] GET /api/v1/address-search: query=%s", query)

	if len(query) < 4 || h.Geocoder == nil {
		h.writeJSON(w, http.StatusOK, []interface{}{})
		return
	}

	results, err := h.Geocoder.Search(r.Context(), query, 5)
	if err != nil {
		log.Printf("[ERROR] Failed to search addresses: query=%s err=%v", query, err)
		h.writeJSON(w, http.StatusOK, []interface{}{})
		return
	}

	log.Printf("[HTTP] GET /api/v1/address-search: query=%s results_count=%d", query, len(results))
	h.writeJSON(w, http.StatusOK, results)
}
