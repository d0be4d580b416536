package api

import (
	"net/http"
	"strconv"
	"strings"

	"terroir/internal/geo"
	"terroir/internal/metrics"
)

// handleGeocodeSearch proxies an address search to the geocoder.
// GET /api/geocode/search?q=&limit=
func (s *HTTPServer) handleGeocodeSearch(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("geocode_search", "2xx")

	if s.geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	results, err := s.geocoder.Search(r.Context(), query, limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("geocode search failed")
		writeError(w, http.StatusBadGateway, "geocoding service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleGeocodeReverse proxies a reverse lookup to the geocoder.
// GET /api/geocode/reverse?lat=&lon=
func (s *HTTPServer) handleGeocodeReverse(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("geocode_reverse", "2xx")

	if s.geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat is required")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon is required")
		return
	}
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.geocoder.Reverse(r.Context(), lat, lon)
	if err != nil {
		s.log.Error().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocode failed")
		writeError(w, http.StatusBadGateway, "geocoding service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
