package api

import (
	"errors"
	"net/http"
	"time"

	"terroir/internal/database"
	"terroir/internal/events"
	"terroir/internal/metrics"
	"terroir/internal/models"
	"terroir/internal/schedule"
)

// SaleModeRequest is the body for creating or updating a sale mode. The
// nested opening hours replace the stored set wholesale.
type SaleModeRequest struct {
	ModeType     string            `json:"mode_type"`
	Title        string            `json:"title"`
	Instructions string            `json:"instructions,omitempty"`
	PhoneNumber  string            `json:"phone_number,omitempty"`
	WebsiteURL   string            `json:"website_url,omitempty"`
	Is24x7       bool              `json:"is_24_7"`
	Address      string            `json:"location_address,omitempty"`
	Latitude     *float64          `json:"location_latitude,omitempty"`
	Longitude    *float64          `json:"location_longitude,omitempty"`
	MarketInfo   string            `json:"market_info,omitempty"`
	Order        int               `json:"order"`
	OpeningHours []schedule.RawDay `json:"opening_hours"`
}

// handleListSaleModes returns a producer's sale modes in display order.
// GET /api/producers/{id}/sale-modes
func (s *HTTPServer) handleListSaleModes(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemodes_list", "2xx")

	producerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid producer id")
		return
	}

	modes, err := s.db.ListSaleModes(r.Context(), producerID)
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", producerID).Msg("failed to list sale modes")
		writeError(w, http.StatusInternalServerError, "failed to list sale modes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sale_modes": modes})
}

// handleCreateSaleMode adds a sale mode to the caller's profile.
// POST /api/producers/{id}/sale-modes
func (s *HTTPServer) handleCreateSaleMode(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemodes_create", "2xx")

	producer, ok := s.ownedProducer(w, r)
	if !ok {
		return
	}

	var req SaleModeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := saleModeFromRequest(&req)
	mode.ProducerID = producer.ID
	if !s.validateSaleMode(w, mode) {
		return
	}

	if err := s.db.CreateSaleMode(r.Context(), mode); err != nil {
		s.log.Error().Err(err).Int64("producer_id", producer.ID).Msg("failed to create sale mode")
		writeError(w, http.StatusInternalServerError, "failed to create sale mode")
		return
	}

	s.publish(events.TypeSaleModeChanged, producer.ID)
	writeJSON(w, http.StatusCreated, mode)
}

// handleGetSaleMode returns one sale mode with its opening hours.
// GET /api/sale-modes/{id}
func (s *HTTPServer) handleGetSaleMode(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemodes_get", "2xx")

	mode, ok := s.loadSaleMode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mode)
}

// handleUpdateSaleMode replaces a sale mode owned by the caller.
// PATCH /api/sale-modes/{id}
func (s *HTTPServer) handleUpdateSaleMode(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemodes_update", "2xx")

	mode, ok := s.ownedSaleMode(w, r)
	if !ok {
		return
	}

	var req SaleModeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updated := saleModeFromRequest(&req)
	updated.ID = mode.ID
	updated.ProducerID = mode.ProducerID
	if !s.validateSaleMode(w, updated) {
		return
	}

	if err := s.db.UpdateSaleMode(r.Context(), updated); err != nil {
		s.log.Error().Err(err).Int64("sale_mode_id", mode.ID).Msg("failed to update sale mode")
		writeError(w, http.StatusInternalServerError, "failed to update sale mode")
		return
	}

	s.publish(events.TypeSaleModeChanged, mode.ProducerID)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteSaleMode removes a sale mode owned by the caller.
// DELETE /api/sale-modes/{id}
func (s *HTTPServer) handleDeleteSaleMode(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemodes_delete", "2xx")

	mode, ok := s.ownedSaleMode(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteSaleMode(r.Context(), mode.ID); err != nil {
		s.log.Error().Err(err).Int64("sale_mode_id", mode.ID).Msg("failed to delete sale mode")
		writeError(w, http.StatusInternalServerError, "failed to delete sale mode")
		return
	}

	s.publish(events.TypeSaleModeChanged, mode.ProducerID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// StatusResponse is the opening status of one sale mode at an instant.
type StatusResponse struct {
	SaleModeID        int64            `json:"sale_mode_id"`
	HoursDefined      bool             `json:"hours_defined"`
	IsOpen            bool             `json:"is_open"`
	Is24x7            bool             `json:"is_24_7"`
	MinutesUntilClose *int             `json:"minutes_until_close,omitempty"`
	MinutesUntilOpen  *int             `json:"minutes_until_open,omitempty"`
	Today             *TodayHours      `json:"today,omitempty"`
	NextOpening       *NextOpeningView `json:"next_opening,omitempty"`
	Message           string           `json:"message"`
	EvaluatedAt       time.Time        `json:"evaluated_at"`
}

// TodayHours is today's window in wall-clock form.
type TodayHours struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
}

// NextOpeningView is the next opening in wall-clock form.
type NextOpeningView struct {
	DayLabel string `json:"day_label"`
	Time     string `json:"time"`
}

// handleSaleModeStatus evaluates a sale mode's schedule at an instant.
// GET /api/sale-modes/{id}/status?at=RFC3339 (at defaults to now)
func (s *HTTPServer) handleSaleModeStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("salemode_status", "2xx")

	mode, ok := s.loadSaleMode(w, r)
	if !ok {
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at; expected RFC3339")
			return
		}
		at = parsed
	}

	resp := StatusResponse{SaleModeID: mode.ID, EvaluatedAt: at}

	if !mode.Is24x7 && len(mode.OpeningHours) == 0 {
		resp.Message = "Hours not defined"
		metrics.IncScheduleEvaluation("undefined")
		writeJSON(w, http.StatusOK, resp)
		return
	}

	owner, warnings, err := mode.ScheduleOwner()
	if err != nil {
		// Stored hours predate the validation boundary; report, don't 500.
		s.log.Warn().Err(err).Int64("sale_mode_id", mode.ID).Msg("stored opening hours are invalid")
		resp.Message = "Hours not defined"
		metrics.IncScheduleEvaluation("undefined")
		writeJSON(w, http.StatusOK, resp)
		return
	}
	for _, warning := range warnings {
		s.log.Warn().Int64("sale_mode_id", mode.ID).Int("day", warning.Day).
			Msg("duplicate opening hours entry ignored")
	}

	result := schedule.Evaluate(owner.Week, at)
	resp.HoursDefined = true
	resp.IsOpen = result.Open
	resp.Is24x7 = result.Is24x7
	resp.MinutesUntilClose = result.MinutesUntilClose
	resp.MinutesUntilOpen = result.MinutesUntilOpen
	if result.Today != nil && !result.Today.Closed {
		resp.Today = &TodayHours{
			OpensAt:  result.Today.OpensAt.String(),
			ClosesAt: result.Today.ClosesAt.String(),
		}
	}
	if result.NextOpening != nil {
		resp.NextOpening = &NextOpeningView{
			DayLabel: result.NextOpening.DayLabel,
			Time:     result.NextOpening.Time.String(),
		}
	}
	resp.Message = statusMessage(result)

	metrics.IncScheduleEvaluation(statusOutcome(result))
	writeJSON(w, http.StatusOK, resp)
}

func statusMessage(result schedule.Result) string {
	switch {
	case result.Is24x7:
		return "Open 24/7"
	case result.Open && result.MinutesUntilClose != nil:
		return "Open · closes in " + schedule.FormatDuration(*result.MinutesUntilClose)
	case result.MinutesUntilOpen != nil:
		return "Closed · opens in " + schedule.FormatDuration(*result.MinutesUntilOpen)
	case result.NextOpening != nil:
		return "Closed · opens " + result.NextOpening.DayLabel + " at " + result.NextOpening.Time.String()
	default:
		return "Closed"
	}
}

func statusOutcome(result schedule.Result) string {
	if result.Open {
		return "open"
	}
	return "closed"
}

// WeekGridResponse pairs the grid geometry with a per-owner legend.
type WeekGridResponse struct {
	Grid   schedule.WeekGrid `json:"grid"`
	Legend []LegendEntry     `json:"legend"`
}

// LegendEntry maps an owner index to its display color.
type LegendEntry struct {
	OwnerIndex int    `json:"owner_index"`
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Color      string `json:"color"`
}

// handleProducerWeekGrid builds the weekly calendar for all of a
// producer's sale modes.
// GET /api/producers/{id}/schedule/week
func (s *HTTPServer) handleProducerWeekGrid(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTPRequest("producer_week_grid", "2xx")

	producerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid producer id")
		return
	}
	if _, err := s.db.GetProducer(r.Context(), producerID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "producer not found")
			return
		}
		s.log.Error().Err(err).Int64("producer_id", producerID).Msg("failed to get producer")
		writeError(w, http.StatusInternalServerError, "failed to get producer")
		return
	}

	modes, err := s.db.ListSaleModes(r.Context(), producerID)
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", producerID).Msg("failed to list sale modes")
		writeError(w, http.StatusInternalServerError, "failed to list sale modes")
		return
	}

	var owners []schedule.Owner
	var legend []LegendEntry
	for i := range modes {
		owner, _, err := modes[i].ScheduleOwner()
		if err != nil {
			s.log.Warn().Err(err).Int64("sale_mode_id", modes[i].ID).Msg("skipping sale mode with invalid hours")
			continue
		}
		legend = append(legend, LegendEntry{
			OwnerIndex: len(owners),
			Label:      owner.Label,
			Kind:       owner.Kind,
			Color:      schedule.PaletteEntry(len(owners)),
		})
		owners = append(owners, owner)
	}

	writeJSON(w, http.StatusOK, WeekGridResponse{
		Grid:   schedule.BuildWeekGrid(owners),
		Legend: legend,
	})
}

func saleModeFromRequest(req *SaleModeRequest) *models.SaleMode {
	return &models.SaleMode{
		ModeType:     req.ModeType,
		Title:        req.Title,
		Instructions: req.Instructions,
		PhoneNumber:  req.PhoneNumber,
		WebsiteURL:   req.WebsiteURL,
		Is24x7:       req.Is24x7,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		MarketInfo:   req.MarketInfo,
		Order:        req.Order,
		OpeningHours: req.OpeningHours,
	}
}

// validateSaleMode runs model validation and the schedule normalization
// boundary, writing the error response itself on failure.
func (s *HTTPServer) validateSaleMode(w http.ResponseWriter, mode *models.SaleMode) bool {
	if err := mode.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	_, warnings, err := mode.ScheduleOwner()
	if err != nil {
		var invalid *schedule.InvalidIntervalError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	for _, warning := range warnings {
		s.log.Warn().Int64("producer_id", mode.ProducerID).Int("day", warning.Day).
			Msg("duplicate opening hours entry ignored")
	}
	return true
}

func (s *HTTPServer) loadSaleMode(w http.ResponseWriter, r *http.Request) (*models.SaleMode, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sale mode id")
		return nil, false
	}

	mode, err := s.db.GetSaleMode(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "sale mode not found")
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Int64("sale_mode_id", id).Msg("failed to get sale mode")
		writeError(w, http.StatusInternalServerError, "failed to get sale mode")
		return nil, false
	}
	return mode, true
}

// ownedSaleMode loads the sale mode and checks the caller owns the parent
// producer profile.
func (s *HTTPServer) ownedSaleMode(w http.ResponseWriter, r *http.Request) (*models.SaleMode, bool) {
	mode, ok := s.loadSaleMode(w, r)
	if !ok {
		return nil, false
	}

	producer, err := s.db.GetProducer(r.Context(), mode.ProducerID)
	if err != nil {
		s.log.Error().Err(err).Int64("producer_id", mode.ProducerID).Msg("failed to get producer")
		writeError(w, http.StatusInternalServerError, "failed to check ownership")
		return nil, false
	}
	if producer.UserID != userID(r) {
		writeError(w, http.StatusForbidden, "not your sale mode")
		return nil, false
	}
	return mode, true
}
