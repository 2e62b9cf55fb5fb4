package models

import "time"

// Meeting status lifecycle.
const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusCompleted = "completed"
	MeetingStatusCancelled = "cancelled"
)

// Meeting records a scheduled in-person meeting for a student.
// ScheduledAt combines the assignment date and start time.
type Meeting struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	ScheduledAt     time.Time `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Status          string    `db:"status" json:"status"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// MeetingFilter describes query params for listing meetings.
type MeetingFilter struct {
	StudentID string
	Status    string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
