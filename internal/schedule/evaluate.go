package schedule

import (
	"fmt"
	"time"
)

// NextOpening points at the first future opening found within the next
// seven days. DayLabel is "Today", "Tomorrow" or the day's name.
type NextOpening struct {
	DayLabel string    `json:"day_label"`
	Time     TimeOfDay `json:"time"`
}

// Result is the outcome of evaluating a schedule at a reference instant.
// When the schedule is not 24/7 and at least one opening exists, exactly
// one of MinutesUntilClose/MinutesUntilOpen is set.
type Result struct {
	Open              bool
	Is24x7            bool
	MinutesUntilClose *int
	MinutesUntilOpen  *int
	NextOpening       *NextOpening
	Today             *DailyInterval
}

// Evaluate answers whether a canonical schedule is open at the given
// instant. The open/closed boundary rule is half-open: the instant equal
// to OpensAt counts as open, the instant equal to ClosesAt counts as
// closed. Evaluate never fails on a schedule produced by Normalize.
func Evaluate(ws WeeklySchedule, at time.Time) Result {
	if ws.Is24x7 {
		return Result{Open: true, Is24x7: true}
	}

	currentDay := FromWeekday(at.Weekday())
	currentMinutes := TimeOfDay(at.Hour()*60 + at.Minute())

	today := ws.Days[currentDay]
	if !today.Closed {
		if currentMinutes >= today.OpensAt && currentMinutes < today.ClosesAt {
			until := int(today.ClosesAt - currentMinutes)
			return Result{Open: true, MinutesUntilClose: &until, Today: &today}
		}
		if currentMinutes < today.OpensAt {
			until := int(today.OpensAt - currentMinutes)
			return Result{MinutesUntilOpen: &until, Today: &today}
		}
	}

	// Closed today or today's window already passed.
	res := Result{NextOpening: findNextOpening(ws, currentDay, currentMinutes)}
	if !today.Closed {
		res.Today = &today
	}
	return res
}

// findNextOpening scans up to seven days forward, wrapping across the
// week, for the first day with an opening still in the future.
func findNextOpening(ws WeeklySchedule, currentDay DayOfWeek, currentMinutes TimeOfDay) *NextOpening {
	for offset := 0; offset < 7; offset++ {
		day := DayOfWeek((int(currentDay) + offset) % 7)
		interval := ws.Days[day]
		if interval.Closed {
			continue
		}
		if offset == 0 && interval.OpensAt <= currentMinutes {
			continue
		}
		return &NextOpening{DayLabel: dayLabel(offset, day), Time: interval.OpensAt}
	}
	return nil
}

func dayLabel(offset int, day DayOfWeek) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return day.String()
	}
}

// FormatDuration renders a minute count for the status badge: minutes
// under an hour as "N min", exact hours as "Hh", partial hours as "HhMM"
// with the minutes zero-padded (90 -> "1h30").
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%02d", hours, mins)
}
