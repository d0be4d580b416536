package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "12:30:45", want: 750}, // seconds truncated
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromWeekday(t *testing.T) {
	assert.Equal(t, Monday, FromWeekday(1))  // time.Monday
	assert.Equal(t, Saturday, FromWeekday(6))
	assert.Equal(t, Sunday, FromWeekday(0)) // time.Sunday maps to the last slot
}

func TestNormalize(t *testing.T) {
	ws, warnings, err := Normalize([]RawDay{
		{DayOfWeek: 0, OpeningTime: strPtr("09:00"), ClosingTime: strPtr("18:00")},
		{DayOfWeek: 2, IsClosed: true},
	}, false)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.False(t, ws.Days[Monday].Closed)
	assert.Equal(t, TimeOfDay(540), ws.Days[Monday].OpensAt)
	assert.Equal(t, TimeOfDay(1080), ws.Days[Monday].ClosesAt)
	assert.True(t, ws.Days[Tuesday].Closed, "missing day defaults to closed")
	assert.True(t, ws.Days[Wednesday].Closed)
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDay
	}{
		{name: "open without times", raw: RawDay{DayOfWeek: 0}},
		{name: "open without closing", raw: RawDay{DayOfWeek: 0, OpeningTime: strPtr("09:00")}},
		{name: "bad format", raw: RawDay{DayOfWeek: 0, OpeningTime: strPtr("9am"), ClosingTime: strPtr("18:00")}},
		{name: "open equals close", raw: RawDay{DayOfWeek: 0, OpeningTime: strPtr("09:00"), ClosingTime: strPtr("09:00")}},
		{name: "open after close", raw: RawDay{DayOfWeek: 0, OpeningTime: strPtr("18:00"), ClosingTime: strPtr("09:00")}},
		{name: "closed with times", raw: RawDay{DayOfWeek: 0, IsClosed: true, OpeningTime: strPtr("09:00"), ClosingTime: strPtr("18:00")}},
		{name: "day out of range", raw: RawDay{DayOfWeek: 7, IsClosed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]RawDay{tt.raw}, false)
			require.Error(t, err)
			var invalid *InvalidIntervalError
			assert.True(t, errors.As(err, &invalid), "expected InvalidIntervalError, got %T", err)
		})
	}
}

func TestNormalizeDuplicateDayKeepsFirst(t *testing.T) {
	ws, warnings, err := Normalize([]RawDay{
		{DayOfWeek: 0, OpeningTime: strPtr("08:00"), ClosingTime: strPtr("12:00")},
		{DayOfWeek: 0, OpeningTime: strPtr("14:00"), ClosingTime: strPtr("18:00")},
	}, false)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 0, warnings[0].Day)
	assert.Equal(t, TimeOfDay(480), ws.Days[Monday].OpensAt, "first entry wins")
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := []RawDay{
		{DayOfWeek: 0, OpeningTime: strPtr("09:00:00"), ClosingTime: strPtr("18:30:00")},
		{DayOfWeek: 5, OpeningTime: strPtr("08:00"), ClosingTime: strPtr("12:00")},
		{DayOfWeek: 6, IsClosed: true},
	}

	first, _, err := Normalize(raw, false)
	require.NoError(t, err)

	second, warnings, err := Normalize(first.Raw(), false)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, first, second)
}

func TestNormalize24x7IgnoresDays(t *testing.T) {
	ws, _, err := Normalize(nil, true)
	require.NoError(t, err)
	assert.True(t, ws.Is24x7)
	for _, d := range ws.Days {
		assert.True(t, d.Closed)
	}
}
