package models

import "time"

// Export job lifecycle states.
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ScheduleExport tracks an asynchronous export of a confirmed schedule run.
type ScheduleExport struct {
	ID          string     `json:"id"`
	RunID       string     `json:"run_id"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	FilePath    string     `json:"-"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
