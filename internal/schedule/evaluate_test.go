package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-01-06 is a Monday.
func instant(day DayOfWeek, hour, minute int) time.Time {
	return time.Date(2025, 1, 6+int(day), hour, minute, 0, 0, time.UTC)
}

func openDay(opens, closes TimeOfDay) DailyInterval {
	return DailyInterval{OpensAt: opens, ClosesAt: closes}
}

func closedWeek() WeeklySchedule {
	var ws WeeklySchedule
	for i := range ws.Days {
		ws.Days[i].Closed = true
	}
	return ws
}

func TestEvaluate24x7AlwaysOpen(t *testing.T) {
	ws := WeeklySchedule{Is24x7: true}
	for day := Monday; day <= Sunday; day++ {
		for _, hm := range [][2]int{{0, 0}, {3, 17}, {12, 0}, {23, 59}} {
			res := Evaluate(ws, instant(day, hm[0], hm[1]))
			assert.True(t, res.Open)
			assert.True(t, res.Is24x7)
			assert.Nil(t, res.MinutesUntilClose)
			assert.Nil(t, res.MinutesUntilOpen)
		}
	}
}

func TestEvaluateOpenNow(t *testing.T) {
	ws := closedWeek()
	ws.Days[Monday] = openDay(540, 1080) // 09:00-18:00

	res := Evaluate(ws, instant(Monday, 10, 0))
	assert.True(t, res.Open)
	require.NotNil(t, res.MinutesUntilClose)
	assert.Equal(t, 480, *res.MinutesUntilClose)
	assert.Nil(t, res.MinutesUntilOpen)
	require.NotNil(t, res.Today)
	assert.Equal(t, TimeOfDay(540), res.Today.OpensAt)
}

func TestEvaluateBoundaries(t *testing.T) {
	ws := closedWeek()
	ws.Days[Monday] = openDay(540, 1080)

	t.Run("opening instant is open", func(t *testing.T) {
		res := Evaluate(ws, instant(Monday, 9, 0))
		assert.True(t, res.Open)
		require.NotNil(t, res.MinutesUntilClose)
		assert.Equal(t, 540, *res.MinutesUntilClose)
	})

	t.Run("closing instant is closed", func(t *testing.T) {
		res := Evaluate(ws, instant(Monday, 18, 0))
		assert.False(t, res.Open)
	})

	t.Run("one minute before close", func(t *testing.T) {
		res := Evaluate(ws, instant(Monday, 17, 59))
		assert.True(t, res.Open)
		require.NotNil(t, res.MinutesUntilClose)
		assert.Equal(t, 1, *res.MinutesUntilClose)
	})
}

func TestEvaluateOpensLaterToday(t *testing.T) {
	ws := closedWeek()
	ws.Days[Monday] = openDay(540, 1080)

	res := Evaluate(ws, instant(Monday, 7, 30))
	assert.False(t, res.Open)
	require.NotNil(t, res.MinutesUntilOpen)
	assert.Equal(t, 90, *res.MinutesUntilOpen)
	assert.Nil(t, res.MinutesUntilClose)
}

func TestEvaluateAfterClosePointsToNextOpening(t *testing.T) {
	ws := closedWeek()
	ws.Days[Monday] = openDay(540, 1080)
	ws.Days[Tuesday] = openDay(600, 720)

	res := Evaluate(ws, instant(Monday, 19, 0))
	assert.False(t, res.Open)
	require.NotNil(t, res.NextOpening)
	assert.Equal(t, "Tomorrow", res.NextOpening.DayLabel)
	assert.Equal(t, TimeOfDay(600), res.NextOpening.Time)
	require.NotNil(t, res.Today, "today's passed window stays attached")
}

func TestEvaluateSundayNightFindsMondayMorning(t *testing.T) {
	ws := closedWeek()
	ws.Days[Monday] = openDay(480, 720) // 08:00-12:00

	res := Evaluate(ws, instant(Sunday, 23, 50))
	assert.False(t, res.Open)
	require.NotNil(t, res.NextOpening)
	assert.Equal(t, "Tomorrow", res.NextOpening.DayLabel)
	assert.Equal(t, TimeOfDay(480), res.NextOpening.Time)
}

func TestEvaluateNextOpeningSkipsToNamedDay(t *testing.T) {
	ws := closedWeek()
	ws.Days[Friday] = openDay(540, 1020)

	res := Evaluate(ws, instant(Monday, 12, 0))
	assert.False(t, res.Open)
	require.NotNil(t, res.NextOpening)
	assert.Equal(t, "Friday", res.NextOpening.DayLabel)
}

func TestEvaluateEveryDayClosed(t *testing.T) {
	ws := closedWeek()
	for day := Monday; day <= Sunday; day++ {
		res := Evaluate(ws, instant(day, 12, 0))
		assert.False(t, res.Open)
		assert.Nil(t, res.NextOpening)
		assert.Nil(t, res.MinutesUntilClose)
		assert.Nil(t, res.MinutesUntilOpen)
	}
}

func TestEvaluateScanStopsAfterSevenDays(t *testing.T) {
	// Only Monday morning is open and that window already passed; the scan
	// covers seven offsets starting today, so nothing is found.
	ws := closedWeek()
	ws.Days[Monday] = openDay(480, 720)

	res := Evaluate(ws, instant(Monday, 13, 0))
	assert.False(t, res.Open)
	assert.Nil(t, res.NextOpening)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{45, "45 min"},
		{60, "1h"},
		{90, "1h30"},
		{125, "2h05"},
		{0, "0 min"},
		{600, "10h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.minutes); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
