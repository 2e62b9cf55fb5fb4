package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// ClockMinutes is a wall-clock time expressed as minutes since midnight.
type ClockMinutes int

// ParseClock converts an "HH:MM" string into minutes since midnight.
func ParseClock(raw string) (ClockMinutes, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q, expected HH:MM", raw)
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock value %q, expected HH:MM", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", raw)
	}
	return ClockMinutes(hour*60 + minute), nil
}

// String renders the value back to "HH:MM".
func (m ClockMinutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Add returns the clock value advanced by the given number of minutes.
func (m ClockMinutes) Add(minutes int) ClockMinutes {
	return m + ClockMinutes(minutes)
}

var weekdayNames = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

// ParseWeekday resolves a canonical weekday name ("MONDAY".."SUNDAY").
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return day, nil
}

// WeekdayName renders a time.Weekday using the canonical uppercase form.
func WeekdayName(day time.Weekday) string {
	return strings.ToUpper(day.String())
}
