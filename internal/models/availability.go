package models

import "time"

// AvailabilityWindow is a recurring weekly slot administrators open for
// calls or meetings. Times are stored as "HH:MM" wall-clock strings.
type AvailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	Category  string    `db:"category" json:"category"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AvailabilityFilter describes query params for listing windows.
type AvailabilityFilter struct {
	Category  string
	DayOfWeek string
}
