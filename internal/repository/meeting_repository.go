package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
)

// MeetingRepository manages persistence for scheduled meetings.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository constructs a MeetingRepository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// UpsertBatch inserts meetings inside the provided transaction, keyed on
// (student_id, scheduled_at) so a retried run cannot double-insert.
func (r *MeetingRepository) UpsertBatch(ctx context.Context, tx *sqlx.Tx, meetings []models.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}
	const query = `INSERT INTO meetings (id, student_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at)
        VALUES (:id, :student_id, :scheduled_at, :duration_minutes, :status, :notes, :created_at, :updated_at)
        ON CONFLICT (student_id, scheduled_at) DO UPDATE SET duration_minutes = EXCLUDED.duration_minutes, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range meetings {
		if meetings[i].ID == "" {
			meetings[i].ID = uuid.NewString()
		}
		if meetings[i].Status == "" {
			meetings[i].Status = models.MeetingStatusScheduled
		}
		if meetings[i].CreatedAt.IsZero() {
			meetings[i].CreatedAt = now
		}
		meetings[i].UpdatedAt = now
	}
	if _, err := sqlx.NamedExecContext(ctx, tx, query, meetings); err != nil {
		return fmt.Errorf("upsert meetings: %w", err)
	}
	return nil
}

// List returns meetings matching the provided filters.
func (r *MeetingRepository) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error) {
	base := "FROM meetings"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at
        %s ORDER BY scheduled_at LIMIT %d OFFSET %d`, base, size, offset)

	var meetings []models.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list meetings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count meetings: %w", err)
	}
	return meetings, total, nil
}
