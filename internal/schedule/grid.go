package schedule

// Span is one visible time range for one owner on one day. StartMinutes
// and EndMinutes are minutes since midnight; a 24/7 owner spans 0..1440.
type Span struct {
	OwnerIndex   int    `json:"owner_index"`
	Label        string `json:"label"`
	Kind         string `json:"kind"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Is24x7       bool   `json:"is_24_7"`
}

// WeekGrid is the renderable geometry for a calendar-style weekly view.
// Spans within a day keep owner input order; the renderer uses the
// position for lane offsetting, first owner in lane 0.
type WeekGrid struct {
	Days    [7][]Span `json:"days"`
	MinHour int       `json:"min_hour"`
	MaxHour int       `json:"max_hour"`
}

// Display hour bounds used when no owner has any span.
const (
	defaultMinHour = 8
	defaultMaxHour = 20
)

// BuildWeekGrid merges the schedules of the given owners into per-day span
// lists. Owner order is significant: it fixes lane stacking and the color
// assignment index. The hour bounds cover all spans padded by one hour on
// each side, clamped to [0, 24].
func BuildWeekGrid(owners []Owner) WeekGrid {
	var grid WeekGrid

	for idx, owner := range owners {
		if owner.Week.Is24x7 {
			for day := 0; day < 7; day++ {
				grid.Days[day] = append(grid.Days[day], Span{
					OwnerIndex:   idx,
					Label:        owner.Label,
					Kind:         owner.Kind,
					StartMinutes: 0,
					EndMinutes:   MinutesPerDay,
					Is24x7:       true,
				})
			}
			continue
		}
		for day, interval := range owner.Week.Days {
			if interval.Closed {
				continue
			}
			grid.Days[day] = append(grid.Days[day], Span{
				OwnerIndex:   idx,
				Label:        owner.Label,
				Kind:         owner.Kind,
				StartMinutes: int(interval.OpensAt),
				EndMinutes:   int(interval.ClosesAt),
			})
		}
	}

	grid.MinHour, grid.MaxHour = hourBounds(&grid)
	return grid
}

func hourBounds(grid *WeekGrid) (minHour, maxHour int) {
	minHour, maxHour = 24, 0
	empty := true

	for day := range grid.Days {
		for _, span := range grid.Days[day] {
			empty = false
			if span.Is24x7 {
				minHour, maxHour = 0, 24
				continue
			}
			if h := span.StartMinutes / 60; h < minHour {
				minHour = h
			}
			if h := ceilHour(span.EndMinutes); h > maxHour {
				maxHour = h
			}
		}
	}

	if empty {
		return defaultMinHour, defaultMaxHour
	}

	if minHour > 0 {
		minHour--
	}
	if maxHour < 24 {
		maxHour++
	}
	return minHour, maxHour
}

func ceilHour(minutes int) int {
	h := minutes / 60
	if minutes%60 != 0 {
		h++
	}
	return h
}

// Palette is the fixed color cycle for owner rendering; owners take the
// entry at their position modulo the palette size.
var Palette = [...]string{"emerald", "blue", "amber", "purple", "rose", "cyan"}

// PaletteEntry returns the color name for an owner index.
func PaletteEntry(index int) string {
	if index < 0 {
		index = -index
	}
	return Palette[index%len(Palette)]
}
