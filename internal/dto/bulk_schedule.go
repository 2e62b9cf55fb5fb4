package dto

import "time"

// BulkSchedulePreviewRequest asks for a dry-run packing of a roster into
// availability windows. Either StudentIDs (explicit priority order) or
// ClassName (roster ordered by name) must be provided.
type BulkSchedulePreviewRequest struct {
	Category        string   `json:"category" validate:"required"`
	DurationMinutes int      `json:"durationMinutes"`
	StartDate       string   `json:"startDate" validate:"required"`
	AllowedWeekdays []string `json:"allowedWeekdays"`
	DayHorizon      int      `json:"dayHorizon"`
	StudentIDs      []string `json:"studentIds"`
	ClassName       string   `json:"className"`
}

// AssignmentView is one packed appointment enriched for preview rendering.
type AssignmentView struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	ClassName   string `json:"class_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// BulkSchedulePreviewResponse reports the packing outcome before anything
// is persisted. Assigned < Requested marks a partial run.
type BulkSchedulePreviewResponse struct {
	RunID       string           `json:"run_id"`
	Category    string           `json:"category"`
	Requested   int              `json:"requested"`
	Assigned    int              `json:"assigned"`
	Complete    bool             `json:"complete"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Assignments []AssignmentView `json:"assignments"`
}

// BulkScheduleConfirmRequest persists a previously previewed run.
type BulkScheduleConfirmRequest struct {
	RunID string `json:"runId" validate:"required"`
}

// BulkScheduleConfirmResponse reports the persistence outcome.
type BulkScheduleConfirmResponse struct {
	RunID         string `json:"run_id"`
	Category      string `json:"category"`
	InsertedCount int    `json:"inserted_count"`
}

// ScheduleExportRequest asks for an asynchronous export of a run.
type ScheduleExportRequest struct {
	RunID  string `json:"runId" validate:"required"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}
