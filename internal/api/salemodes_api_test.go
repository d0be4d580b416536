package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terroir/internal/models"
	"terroir/internal/schedule"
)

func strPtr(s string) *string { return &s }

func weekdayHours(days ...int) []schedule.RawDay {
	var raw []schedule.RawDay
	for _, d := range days {
		raw = append(raw, schedule.RawDay{
			DayOfWeek:   d,
			OpeningTime: strPtr("09:00"),
			ClosingTime: strPtr("18:00"),
		})
	}
	return raw
}

func createSaleMode(t *testing.T, handler http.Handler, token string, producerID int64, req SaleModeRequest) int64 {
	t.Helper()

	w := doJSON(t, handler, "POST", fmt.Sprintf("/api/producers/%d/sale-modes", producerID), token, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var mode struct {
		ID int64 `json:"id"`
	}
	decodeResponse(t, w, &mode)
	return mode.ID
}

func TestSaleModeCRUD(t *testing.T) {
	_, handler := newTestServer(t)
	token, producerID := registerProducer(t, handler, "crud@example.com")

	modeID := createSaleMode(t, handler, token, producerID, SaleModeRequest{
		ModeType:     models.ModeOnSite,
		Title:        "Boutique",
		OpeningHours: weekdayHours(1, 3),
	})

	t.Run("get returns stored hours", func(t *testing.T) {
		w := doJSON(t, handler, "GET", fmt.Sprintf("/api/sale-modes/%d", modeID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var mode models.SaleMode
		decodeResponse(t, w, &mode)
		assert.Equal(t, "Boutique", mode.Title)
		assert.Len(t, mode.OpeningHours, 2)
	})

	t.Run("create rejects unknown mode type", func(t *testing.T) {
		w := doJSON(t, handler, "POST", fmt.Sprintf("/api/producers/%d/sale-modes", producerID), token, SaleModeRequest{
			ModeType: "teleportation", Title: "Nope",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create rejects inverted interval", func(t *testing.T) {
		w := doJSON(t, handler, "POST", fmt.Sprintf("/api/producers/%d/sale-modes", producerID), token, SaleModeRequest{
			ModeType: models.ModeOnSite,
			Title:    "Inversé",
			OpeningHours: []schedule.RawDay{
				{DayOfWeek: 2, OpeningTime: strPtr("18:00"), ClosingTime: strPtr("09:00")},
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("phone order needs a phone number", func(t *testing.T) {
		w := doJSON(t, handler, "POST", fmt.Sprintf("/api/producers/%d/sale-modes", producerID), token, SaleModeRequest{
			ModeType: models.ModePhoneOrder, Title: "Commandes",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update replaces hours", func(t *testing.T) {
		w := doJSON(t, handler, "PATCH", fmt.Sprintf("/api/sale-modes/%d", modeID), token, SaleModeRequest{
			ModeType:     models.ModeOnSite,
			Title:        "Boutique",
			OpeningHours: weekdayHours(5),
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var mode models.SaleMode
		decodeResponse(t, w, &mode)
		assert.Len(t, mode.OpeningHours, 1)
	})

	t.Run("update by another user is forbidden", func(t *testing.T) {
		otherToken, _ := registerProducer(t, handler, "intrus@example.com")
		w := doJSON(t, handler, "PATCH", fmt.Sprintf("/api/sale-modes/%d", modeID), otherToken, SaleModeRequest{
			ModeType: models.ModeOnSite, Title: "Pirate",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, handler, "DELETE", fmt.Sprintf("/api/sale-modes/%d", modeID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, handler, "GET", fmt.Sprintf("/api/sale-modes/%d", modeID), "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSaleModeStatus(t *testing.T) {
	_, handler := newTestServer(t)
	token, producerID := registerProducer(t, handler, "statut@example.com")

	// Tuesday 09:00-18:00.
	modeID := createSaleMode(t, handler, token, producerID, SaleModeRequest{
		ModeType:     models.ModeOnSite,
		Title:        "Marché couvert",
		OpeningHours: weekdayHours(1),
	})

	statusAt := func(t *testing.T, id int64, at string) StatusResponse {
		t.Helper()
		path := fmt.Sprintf("/api/sale-modes/%d/status", id)
		if at != "" {
			path += "?at=" + at
		}
		w := doJSON(t, handler, "GET", path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp StatusResponse
		decodeResponse(t, w, &resp)
		return resp
	}

	t.Run("open during tuesday window", func(t *testing.T) {
		// 2026-09-01 is a Tuesday.
		resp := statusAt(t, modeID, "2026-09-01T10:00:00Z")
		assert.True(t, resp.HoursDefined)
		assert.True(t, resp.IsOpen)
		require.NotNil(t, resp.MinutesUntilClose)
		assert.Equal(t, 480, *resp.MinutesUntilClose)
		require.NotNil(t, resp.Today)
		assert.Equal(t, "09:00", resp.Today.OpensAt)
		assert.Equal(t, "18:00", resp.Today.ClosesAt)
		assert.Equal(t, "Open · closes in 8h", resp.Message)
	})

	t.Run("closing boundary is exclusive", func(t *testing.T) {
		resp := statusAt(t, modeID, "2026-09-01T18:00:00Z")
		assert.False(t, resp.IsOpen)
	})

	t.Run("closed monday points at tomorrow", func(t *testing.T) {
		resp := statusAt(t, modeID, "2026-08-31T12:00:00Z")
		assert.False(t, resp.IsOpen)
		require.NotNil(t, resp.NextOpening)
		assert.Equal(t, "Tomorrow", resp.NextOpening.DayLabel)
		assert.Equal(t, "09:00", resp.NextOpening.Time)
	})

	t.Run("before opening counts down", func(t *testing.T) {
		resp := statusAt(t, modeID, "2026-09-01T08:30:00Z")
		assert.False(t, resp.IsOpen)
		require.NotNil(t, resp.MinutesUntilOpen)
		assert.Equal(t, 30, *resp.MinutesUntilOpen)
	})

	t.Run("24x7 is always open", func(t *testing.T) {
		vendingID := createSaleMode(t, handler, token, producerID, SaleModeRequest{
			ModeType: models.ModeVendingMachine,
			Title:    "Distributeur",
			Is24x7:   true,
		})
		resp := statusAt(t, vendingID, "2026-09-01T03:00:00Z")
		assert.True(t, resp.IsOpen)
		assert.True(t, resp.Is24x7)
		assert.Equal(t, "Open 24/7", resp.Message)
	})

	t.Run("no hours means hours not defined", func(t *testing.T) {
		emptyID := createSaleMode(t, handler, token, producerID, SaleModeRequest{
			ModeType: models.ModeDelivery,
			Title:    "Livraison",
		})
		resp := statusAt(t, emptyID, "")
		assert.False(t, resp.HoursDefined)
		assert.False(t, resp.IsOpen)
		assert.Equal(t, "Hours not defined", resp.Message)
	})

	t.Run("invalid at rejected", func(t *testing.T) {
		w := doJSON(t, handler, "GET", fmt.Sprintf("/api/sale-modes/%d/status?at=yesterday", modeID), "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProducerWeekGrid(t *testing.T) {
	_, handler := newTestServer(t)
	token, producerID := registerProducer(t, handler, "grille@example.com")

	createSaleMode(t, handler, token, producerID, SaleModeRequest{
		ModeType:     models.ModeOnSite,
		Title:        "Boutique",
		OpeningHours: weekdayHours(1, 4),
	})
	createSaleMode(t, handler, token, producerID, SaleModeRequest{
		ModeType: models.ModeVendingMachine,
		Title:    "Distributeur",
		Is24x7:   true,
	})

	w := doJSON(t, handler, "GET", fmt.Sprintf("/api/producers/%d/schedule/week", producerID), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp WeekGridResponse
	decodeResponse(t, w, &resp)

	require.Len(t, resp.Legend, 2)
	assert.NotEqual(t, resp.Legend[0].Color, resp.Legend[1].Color)
	assert.Equal(t, "Boutique", resp.Legend[0].Label)

	// The 24/7 machine spans every day; the shop adds a second span on
	// Tuesday and Friday.
	assert.Len(t, resp.Grid.Days[0], 1)
	assert.Len(t, resp.Grid.Days[1], 2)

	assert.Equal(t, 0, resp.Grid.MinHour)
	assert.Equal(t, 24, resp.Grid.MaxHour)

	t.Run("unknown producer", func(t *testing.T) {
		w := doJSON(t, handler, "GET", "/api/producers/99999/schedule/week", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
