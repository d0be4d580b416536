package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/geo"
	"terroir/internal/metrics"
	"terroir/internal/models"
)

// handleListProducers returns profiles matching optional filters.
// GET /api/producers?search=&categories=a,b
func (s *HTTPServer) handleListProducers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_list", "2xx")

	filter := database.ProducerFilter{
		Search:     strings.TrimSpace(r.URL.Query().Get("search")),
		Categories: splitCategories(r.URL.Query().Get("categories")),
	}

	producers, err := s.db.ListProducers(r.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list producers")
		writeError(w, http.StatusInternalServerError, "failed to list producers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"producers": producers, "count": len(producers)})
}

// NearbyProducer is a producer plus its distance from the query point.
type NearbyProducer struct {
	models.Producer
	DistanceKm float64 `json:"distance_km"`
}

// handleNearbyProducers returns producers within a radius, closest first.
// GET /api/producers/nearby?latitude=&longitude=&radius_km=&categories=
func (s *HTTPServer) handleNearbyProducers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_nearby", "2xx")

	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "latitude is required")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "longitude is required")
		return
	}
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	radiusKm := 10.0
	if raw := q.Get("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
	}
	if radiusKm <= 0 || radiusKm > 1000 {
		writeError(w, http.StatusBadRequest, "radius_km must be in (0, 1000]")
		return
	}

	center := geo.Point{Latitude: lat, Longitude: lon}
	box := geo.BoxAround(center, radiusKm)

	// The box prefilter narrows candidates in SQL; the haversine pass
	// below applies the exact radius.
	producers, err := s.db.ListProducers(r.Context(), database.ProducerFilter{
		Box:        &box,
		Categories: splitCategories(q.Get("categories")),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list nearby producers")
		writeError(w, http.StatusInternalServerError, "failed to list producers")
		return
	}

	nearby := make([]NearbyProducer, 0, len(producers))
	for i := range producers {
		d := geo.Distance(center, producers[i].Location())
		if d > radiusKm {
			continue
		}
		nearby = append(nearby, NearbyProducer{Producer: producers[i], DistanceKm: d})
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })

	writeJSON(w, http.StatusOK, map[string]any{"producers": nearby, "count": len(nearby)})
}

// handleGetProducer returns one profile with photos and sale modes.
// GET /api/producers/{id}
func (s *HTTPServer) handleGetProducer(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_get", "2xx")

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid producer id")
		return
	}

	producer, err := s.db.GetProducer(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "producer not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", id).Msg("failed to get producer")
		writeError(w, http.StatusInternalServerError, "failed to get producer")
		return
	}

	writeJSON(w, http.StatusOK, producer)
}

// ProducerRequest is the body for creating or updating a profile.
type ProducerRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category,omitempty"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Phone        string  `json:"phone,omitempty"`
	EmailContact string  `json:"email_contact,omitempty"`
	Website      string  `json:"website,omitempty"`
}

// handleCreateProducer creates the caller's profile.
// POST /api/producers
func (s *HTTPServer) handleCreateProducer(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_create", "2xx")

	var req ProducerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	producer := s.producerFromRequest(&req)
	producer.UserID = userID(r)
	if err := producer.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.CreateProducer(r.Context(), producer); err != nil {
		if errors.Is(err, database.ErrProfileExists) {
			writeError(w, http.StatusConflict, "profile already exists for this account")
			return
		}
		s.log.Error().Err(err).Int64("user_id", producer.UserID).Msg("failed to create producer")
		writeError(w, http.StatusInternalServerError, "failed to create producer")
		return
	}

	s.publish(events.TypeProducerChanged, producer.ID)
	writeJSON(w, http.StatusCreated, producer)
}

// ProducerPatch carries only the fields to change.
type ProducerPatch struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	EmailContact *string  `json:"email_contact,omitempty"`
	Website      *string  `json:"website,omitempty"`
}

// handleUpdateProducer applies a partial update to the caller's profile.
// PATCH /api/producers/{id}
func (s *HTTPServer) handleUpdateProducer(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_update", "2xx")

	producer, ok := s.ownedProducer(w, r)
	if !ok {
		return
	}

	var patch ProducerPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if patch.Name != nil {
		producer.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		producer.Description = *patch.Description
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if cfg := s.categoriesConfig(); cfg != nil && !cfg.HasActivity(category) {
			category = models.DefaultCategory
		}
		producer.Category = category
	}
	if patch.Address != nil {
		producer.Address = strings.TrimSpace(*patch.Address)
	}
	if patch.Latitude != nil {
		producer.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		producer.Longitude = *patch.Longitude
	}
	if patch.Phone != nil {
		producer.Phone = *patch.Phone
	}
	if patch.EmailContact != nil {
		producer.EmailContact = *patch.EmailContact
	}
	if patch.Website != nil {
		producer.Website = *patch.Website
	}

	if err := producer.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateProducer(r.Context(), producer); err != nil {
		s.log.Error().Err(err).Int64("producer_id", producer.ID).Msg("failed to update producer")
		writeError(w, http.StatusInternalServerError, "failed to update producer")
		return
	}

	s.publish(events.TypeProducerChanged, producer.ID)
	writeJSON(w, http.StatusOK, producer)
}

// handleDeleteProducer removes the caller's profile and everything under it.
// DELETE /api/producers/{id}
func (s *HTTPServer) handleDeleteProducer(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producers_delete", "2xx")

	producer, ok := s.ownedProducer(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteProducer(r.Context(), producer.ID); err != nil {
		s.log.Error().Err(err).Int64("producer_id", producer.ID).Msg("failed to delete producer")
		writeError(w, http.StatusInternalServerError, "failed to delete producer")
		return
	}

	s.publish(events.TypeProducerChanged, producer.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListActivityCategories returns the configured activity kinds.
// GET /api/categories
func (s *HTTPServer) handleListActivityCategories(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("categories_list", "2xx")

	cfg := s.categoriesConfig()
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{"categories": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cfg.Activities})
}

func (s *HTTPServer) producerFromRequest(req *ProducerRequest) *models.Producer {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	if cfg := s.categoriesConfig(); cfg != nil && !cfg.HasActivity(category) {
		category = models.DefaultCategory
	}
	return &models.Producer{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Category:     category,
		Address:      strings.TrimSpace(req.Address),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Phone:        req.Phone,
		EmailContact: req.EmailContact,
		Website:      req.Website,
	}
}

// ownedProducer loads the producer from the path and checks the caller
// owns it.
func (s *HTTPServer) ownedProducer(w http.ResponseWriter, r *http.Request) (*models.Producer, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid producer id")
		return nil, false
	}

	producer, err := s.db.GetProducer(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "producer not found")
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", id).Msg("failed to get producer")
		writeError(w, http.StatusInternalServerError, "failed to get producer")
		return nil, false
	}
	if producer.UserID != userID(r) {
		writeError(w, http.StatusForbidden, "not your profile")
		return nil, false
	}
	return producer, true
}

func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	var categories []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return categories
}

func (s *HTTPServer) publish(eventType string, producerID int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: eventType, ProducerID: producerID})
}
