package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
)

// CallLogRepository manages persistence for scheduled parent calls.
type CallLogRepository struct {
	db *sqlx.DB
}

// NewCallLogRepository constructs a CallLogRepository.
func NewCallLogRepository(db *sqlx.DB) *CallLogRepository {
	return &CallLogRepository{db: db}
}

// UpsertBatch inserts call logs inside the provided transaction. The
// natural key (student_id, call_date, start_time) makes a retried
// persistence run idempotent instead of double-booking.
func (r *CallLogRepository) UpsertBatch(ctx context.Context, tx *sqlx.Tx, logs []models.CallLog) error {
	if len(logs) == 0 {
		return nil
	}
	const query = `INSERT INTO call_logs (id, student_id, call_date, start_time, end_time, contact_name, contact_phone, notes, created_at, updated_at)
        VALUES (:id, :student_id, :call_date, :start_time, :end_time, :contact_name, :contact_phone, :notes, :created_at, :updated_at)
        ON CONFLICT (student_id, call_date, start_time) DO UPDATE SET end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = uuid.NewString()
		}
		if logs[i].CreatedAt.IsZero() {
			logs[i].CreatedAt = now
		}
		logs[i].UpdatedAt = now
	}
	if _, err := sqlx.NamedExecContext(ctx, tx, query, logs); err != nil {
		return fmt.Errorf("upsert call logs: %w", err)
	}
	return nil
}

// ListByStudent returns call logs for a student ordered by date and time.
func (r *CallLogRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CallLog, error) {
	const query = `SELECT id, student_id, call_date, start_time, end_time, contact_name, contact_phone, notes, created_at, updated_at
        FROM call_logs WHERE student_id = $1 ORDER BY call_date, start_time`
	var logs []models.CallLog
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	return logs, nil
}
