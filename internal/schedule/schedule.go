// Package schedule implements the opening-hours engine: a canonical weekly
// schedule model, an open/closed status evaluator and a weekly grid builder
// for calendar-style rendering. All functions are pure; callers inject the
// reference instant.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayOfWeek numbers days Monday-first: Monday=0 .. Sunday=6.
// This is the domain convention regardless of time.Weekday's Sunday=0.
type DayOfWeek int

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d DayOfWeek) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return dayNames[d]
}

// FromWeekday converts Go's Sunday-first weekday numbering to the
// Monday-first domain numbering. This is the single remap point; nothing
// else in the package touches time.Weekday.
func FromWeekday(wd time.Weekday) DayOfWeek {
	if wd == time.Sunday {
		return Sunday
	}
	return DayOfWeek(int(wd) - 1)
}

// TimeOfDay is minutes since midnight, 0..1439.
type TimeOfDay int

// MinutesPerDay is the exclusive upper bound for TimeOfDay and the end
// minute of a full-day span.
const MinutesPerDay = 24 * 60

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds are truncated to minute resolution.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %q", s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// DailyInterval is one day's opening window. When Closed is true the
// interval carries no times; otherwise OpensAt < ClosesAt holds for every
// interval produced by Normalize.
type DailyInterval struct {
	Closed   bool
	OpensAt  TimeOfDay
	ClosesAt TimeOfDay
}

// WeeklySchedule is the canonical week: one interval per day, every day
// either fully specified or closed. When Is24x7 is set the day entries are
// ignored entirely.
type WeeklySchedule struct {
	Is24x7 bool
	Days   [7]DailyInterval
}

// Owner is one sale channel with its label, a type tag used for icon and
// color selection, and exactly one weekly schedule.
type Owner struct {
	Label string
	Kind  string
	Week  WeeklySchedule
}

// RawDay is the external day-keyed record as it arrives from the API or
// database boundary. Times are "HH:MM" or "HH:MM:SS" strings.
type RawDay struct {
	DayOfWeek   int     `json:"day_of_week"`
	IsClosed    bool    `json:"is_closed"`
	OpeningTime *string `json:"opening_time"`
	ClosingTime *string `json:"closing_time"`
}

// InvalidIntervalError reports a malformed or logically inconsistent raw
// day entry. It is raised only at the normalization boundary.
type InvalidIntervalError struct {
	Day    int
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval for day %d: %s", e.Day, e.Reason)
}

// AmbiguousDayError reports more than one raw entry for the same day
// index. Normalize keeps the first entry in input order and returns these
// as non-fatal warnings.
type AmbiguousDayError struct {
	Day int
}

func (e *AmbiguousDayError) Error() string {
	return fmt.Sprintf("duplicate schedule entry for day %d", e.Day)
}

// Normalize converts raw day entries and a 24/7 flag into a canonical
// WeeklySchedule. Missing days default to closed. Malformed entries return
// an InvalidIntervalError; duplicate day indices are resolved
// first-entry-wins and reported as warnings. Normalizing the produced
// schedule again yields the same result.
func Normalize(days []RawDay, is24x7 bool) (WeeklySchedule, []AmbiguousDayError, error) {
	ws := WeeklySchedule{Is24x7: is24x7}
	for i := range ws.Days {
		ws.Days[i].Closed = true
	}

	var warnings []AmbiguousDayError
	seen := [7]bool{}

	for _, raw := range days {
		if raw.DayOfWeek < 0 || raw.DayOfWeek > 6 {
			return WeeklySchedule{}, warnings, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: "day index out of range"}
		}
		if seen[raw.DayOfWeek] {
			warnings = append(warnings, AmbiguousDayError{Day: raw.DayOfWeek})
			continue
		}
		seen[raw.DayOfWeek] = true

		interval, err := normalizeDay(raw)
		if err != nil {
			return WeeklySchedule{}, warnings, err
		}
		ws.Days[raw.DayOfWeek] = interval
	}

	return ws, warnings, nil
}

func normalizeDay(raw RawDay) (DailyInterval, error) {
	if raw.IsClosed {
		if raw.OpeningTime != nil || raw.ClosingTime != nil {
			return DailyInterval{}, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: "closed day carries opening times"}
		}
		return DailyInterval{Closed: true}, nil
	}

	if raw.OpeningTime == nil || raw.ClosingTime == nil {
		return DailyInterval{}, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: "open day requires opening and closing times"}
	}

	opens, err := ParseTimeOfDay(*raw.OpeningTime)
	if err != nil {
		return DailyInterval{}, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: err.Error()}
	}
	closes, err := ParseTimeOfDay(*raw.ClosingTime)
	if err != nil {
		return DailyInterval{}, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: err.Error()}
	}
	if opens >= closes {
		return DailyInterval{}, &InvalidIntervalError{Day: raw.DayOfWeek, Reason: "opening time must be before closing time"}
	}

	return DailyInterval{OpensAt: opens, ClosesAt: closes}, nil
}

// Raw converts a canonical schedule back to boundary records, one per day.
// Useful for persisting edits and for round-trip checks.
func (ws WeeklySchedule) Raw() []RawDay {
	out := make([]RawDay, 0, 7)
	for day, interval := range ws.Days {
		raw := RawDay{DayOfWeek: day, IsClosed: interval.Closed}
		if !interval.Closed {
			opens := interval.OpensAt.String()
			closes := interval.ClosesAt.String()
			raw.OpeningTime = &opens
			raw.ClosingTime = &closes
		}
		out = append(out, raw)
	}
	return out
}
