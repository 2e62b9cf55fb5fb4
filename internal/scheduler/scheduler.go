// Package scheduler implements the bulk appointment packer: it maps an
// ordered student roster onto recurring weekly availability windows,
// walking the calendar forward day by day and filling each window with
// fixed-length appointments until the roster is exhausted or a day
// ceiling is reached. The package performs no I/O and keeps no state
// between calls.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

// Category partitions availability windows by appointment type.
type Category string

const (
	CategoryCalls    Category = "calls"
	CategoryMeetings Category = "meetings"
)

// ParseCategory resolves a category tag, rejecting unknown values.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryCalls:
		return CategoryCalls, nil
	case CategoryMeetings:
		return CategoryMeetings, nil
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Window is a recurring weekly availability slot. Start and End are
// wall-clock boundaries; a window with Start >= End is degenerate and
// never produces assignments.
type Window struct {
	Weekday  time.Weekday
	Category Category
	Start    ClockMinutes
	End      ClockMinutes
}

// Subject is one roster member. Display fields are carried for preview
// rendering only and play no part in packing.
type Subject struct {
	ID           string
	DisplayName  string
	DisplayClass string
}

// Config drives a single packing run.
type Config struct {
	// DurationMinutes is the fixed length of every appointment. Must be positive.
	DurationMinutes int
	// StartDate is the first calendar day considered (inclusive).
	StartDate time.Time
	// AllowedWeekdays restricts which days of the week may host appointments.
	AllowedWeekdays []time.Weekday
	// Category selects the subset of windows eligible for this run.
	Category Category
	// DayHorizon caps how many consecutive calendar days are walked.
	// Zero means DefaultDayHorizon; negative values are invalid.
	DayHorizon int
}

// DefaultDayHorizon bounds the forward walk when the caller does not set one.
const DefaultDayHorizon = 30

// Assignment is one produced appointment. End - Start always equals the
// configured duration and End never exceeds the source window's End.
type Assignment struct {
	SubjectID string
	Date      time.Time
	Start     ClockMinutes
	End       ClockMinutes
}

// Pack assigns roster subjects to appointment slots. Assignments are
// emitted in roster order; an empty roster or a category with no
// matching windows yields an empty result without error. The call is a
// pure computation: identical inputs always produce identical output.
func Pack(windows []Window, roster []Subject, cfg Config) ([]Assignment, error) {
	horizon := cfg.DayHorizon
	if horizon == 0 {
		horizon = DefaultDayHorizon
	}
	if horizon < 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "dayHorizon must not be negative")
	}
	if cfg.DurationMinutes <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "appointment duration must be positive")
	}
	if len(cfg.AllowedWeekdays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "allowedWeekdays must not be empty")
	}

	matching := make([]Window, 0, len(windows))
	degenerate := 0
	for _, w := range windows {
		if w.Category != cfg.Category {
			continue
		}
		if w.Start >= w.End {
			degenerate++
			continue
		}
		matching = append(matching, w)
	}
	if len(matching) == 0 {
		if degenerate > 0 {
			return nil, appErrors.Clone(appErrors.ErrInvalidConfiguration, "every availability window for this category has start >= end")
		}
		return []Assignment{}, nil
	}

	byWeekday := make(map[time.Weekday][]Window)
	for _, w := range matching {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}
	for day := range byWeekday {
		dayWindows := byWeekday[day]
		// Stable keeps supply order for windows sharing a start time.
		sort.SliceStable(dayWindows, func(i, j int) bool {
			return dayWindows[i].Start < dayWindows[j].Start
		})
	}

	allowed := make(map[time.Weekday]bool, len(cfg.AllowedWeekdays))
	for _, day := range cfg.AllowedWeekdays {
		allowed[day] = true
	}

	start := truncateToDay(cfg.StartDate)
	assignments := make([]Assignment, 0, len(roster))
	next := 0

	for offset := 0; offset < horizon && next < len(roster); offset++ {
		date := start.AddDate(0, 0, offset)
		if !allowed[date.Weekday()] {
			continue
		}
		for _, w := range byWeekday[date.Weekday()] {
			cursor := w.Start
			for cursor.Add(cfg.DurationMinutes) <= w.End && next < len(roster) {
				end := cursor.Add(cfg.DurationMinutes)
				assignments = append(assignments, Assignment{
					SubjectID: roster[next].ID,
					Date:      date,
					Start:     cursor,
					End:       end,
				})
				next++
				cursor = end
			}
			if next >= len(roster) {
				break
			}
		}
	}

	return assignments, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
