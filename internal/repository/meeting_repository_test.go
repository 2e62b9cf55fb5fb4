package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
)

func TestMeetingRepositoryUpsertBatchDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO meetings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	meetings := []models.Meeting{
		{StudentID: "s1", ScheduledAt: time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC), DurationMinutes: 30},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), tx, meetings))
	require.NoError(t, tx.Commit())

	assert.Equal(t, models.MeetingStatusScheduled, meetings[0].Status)
	assert.NotEmpty(t, meetings[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMeetingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "scheduled_at", "duration_minutes", "status", "notes", "created_at", "updated_at"}).
		AddRow("m1", "s1", time.Now(), 30, models.MeetingStatusScheduled, "", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, student_id, scheduled_at, duration_minutes, status").
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	meetings, total, err := repo.List(context.Background(), models.MeetingFilter{StudentID: "s1"})
	require.NoError(t, err)
	assert.Len(t, meetings, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
