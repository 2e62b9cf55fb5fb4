package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/dto"
	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

type fakeWindowReader struct {
	rows      []models.AvailabilityWindow
	gotFilter models.AvailabilityFilter
	err       error
}

func (f *fakeWindowReader) List(_ context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error) {
	f.gotFilter = filter
	return f.rows, f.err
}

type fakeRosterReader struct {
	students  []models.Student
	gotFilter models.StudentFilter
	gotIDs    []string
	err       error
}

func (f *fakeRosterReader) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	f.gotFilter = filter
	return f.students, len(f.students), f.err
}

func (f *fakeRosterReader) FindByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	f.gotIDs = ids
	return f.students, f.err
}

type fakeCallLogWriter struct {
	got []models.CallLog
	err error
}

func (f *fakeCallLogWriter) UpsertBatch(_ context.Context, _ *sqlx.Tx, logs []models.CallLog) error {
	f.got = logs
	return f.err
}

type fakeMeetingWriter struct {
	got []models.Meeting
	err error
}

func (f *fakeMeetingWriter) UpsertBatch(_ context.Context, _ *sqlx.Tx, meetings []models.Meeting) error {
	f.got = meetings
	return f.err
}

type mockTxProvider struct {
	db *sqlx.DB
}

func (p *mockTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

type bulkFixture struct {
	svc      *BulkScheduleService
	windows  *fakeWindowReader
	roster   *fakeRosterReader
	calls    *fakeCallLogWriter
	meetings *fakeMeetingWriter
	sqlMock  sqlmock.Sqlmock
	cleanup  func()
}

func newBulkFixture(t *testing.T) *bulkFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	windows := &fakeWindowReader{rows: []models.AvailabilityWindow{
		{ID: "w-1", DayOfWeek: "MONDAY", Category: "calls", StartTime: "09:00", EndTime: "10:00"},
		{ID: "w-2", DayOfWeek: "MONDAY", Category: "meetings", StartTime: "13:00", EndTime: "14:00"},
	}}
	roster := &fakeRosterReader{students: []models.Student{
		{ID: "s-1", FullName: "Avi Cohen", ClassName: "3A"},
		{ID: "s-2", FullName: "Ben Levi", ClassName: "3A"},
	}}
	calls := &fakeCallLogWriter{}
	meetings := &fakeMeetingWriter{}

	svc := NewBulkScheduleService(windows, roster, calls, meetings, &mockTxProvider{db: sqlxDB}, nil, nil, BulkScheduleConfig{
		RunTTL:            time.Minute,
		DefaultDayHorizon: 30,
		MaxRosterSize:     100,
	})

	return &bulkFixture{
		svc:      svc,
		windows:  windows,
		roster:   roster,
		calls:    calls,
		meetings: meetings,
		sqlMock:  mock,
		cleanup:  func() { _ = sqlxDB.Close() },
	}
}

func previewRequest() dto.BulkSchedulePreviewRequest {
	return dto.BulkSchedulePreviewRequest{
		Category:        "calls",
		DurationMinutes: 15,
		StartDate:       "2025-09-01", // a Monday
		AllowedWeekdays: []string{"MONDAY"},
		StudentIDs:      []string{"s-1", "s-2"},
	}
}

func TestBulkScheduleServicePreviewAssignsRosterInOrder(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	resp, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "calls", resp.Category)
	assert.Equal(t, 2, resp.Requested)
	assert.Equal(t, 2, resp.Assigned)
	assert.True(t, resp.Complete)
	require.Len(t, resp.Assignments, 2)

	first := resp.Assignments[0]
	assert.Equal(t, "s-1", first.StudentID)
	assert.Equal(t, "Avi Cohen", first.StudentName)
	assert.Equal(t, "3A", first.ClassName)
	assert.Equal(t, "2025-09-01", first.Date)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "09:15", first.EndTime)

	second := resp.Assignments[1]
	assert.Equal(t, "s-2", second.StudentID)
	assert.Equal(t, "09:15", second.StartTime)

	assert.Equal(t, []string{"s-1", "s-2"}, f.roster.gotIDs)
	assert.Equal(t, "calls", f.windows.gotFilter.Category)
}

func TestBulkScheduleServicePreviewReportsPartialRun(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.DurationMinutes = 45 // only one 45-minute slot fits in the hour

	resp, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Requested)
	assert.Equal(t, 1, resp.Assigned)
	assert.False(t, resp.Complete)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "s-1", resp.Assignments[0].StudentID)
}

func TestBulkScheduleServicePreviewLoadsClassRoster(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.StudentIDs = nil
	req.ClassName = "3A"

	_, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "3A", f.roster.gotFilter.ClassName)
	require.NotNil(t, f.roster.gotFilter.Active)
	assert.True(t, *f.roster.gotFilter.Active)
	assert.Equal(t, "full_name", f.roster.gotFilter.SortBy)
}

func TestBulkScheduleServicePreviewRejectsUnknownCategory(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.Category = "detentions"

	_, err := f.svc.Preview(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestBulkScheduleServicePreviewRejectsMissingRosterSource(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.StudentIDs = nil
	req.ClassName = ""

	_, err := f.svc.Preview(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestBulkScheduleServicePreviewRejectsUnknownStudents(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.StudentIDs = []string{"s-1", "s-2", "s-missing"}

	_, err := f.svc.Preview(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestBulkScheduleServicePreviewRejectsNonPositiveDuration(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.DurationMinutes = 0

	_, err := f.svc.Preview(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidConfiguration))
}

func TestBulkScheduleServiceConfirmPersistsCallLogs(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	preview, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	resp, err := f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	require.NoError(t, err)

	assert.Equal(t, preview.RunID, resp.RunID)
	assert.Equal(t, 2, resp.InsertedCount)
	require.Len(t, f.calls.got, 2)

	first := f.calls.got[0]
	assert.Equal(t, "s-1", first.StudentID)
	assert.Equal(t, "2025-09-01", first.CallDate.Format("2006-01-02"))
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "09:15", first.EndTime)

	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestBulkScheduleServiceConfirmPersistsMeetings(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	req := previewRequest()
	req.Category = "meetings"
	req.DurationMinutes = 30

	preview, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, preview.Assigned)

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	require.NoError(t, err)

	require.Len(t, f.meetings.got, 2)
	first := f.meetings.got[0]
	assert.Equal(t, "s-1", first.StudentID)
	assert.Equal(t, "2025-09-01 13:00", first.ScheduledAt.Format("2006-01-02 15:04"))
	assert.Equal(t, 30, first.DurationMinutes)
	assert.Equal(t, models.MeetingStatusScheduled, first.Status)

	second := f.meetings.got[1]
	assert.Equal(t, "2025-09-01 13:30", second.ScheduledAt.Format("2006-01-02 15:04"))
}

func TestBulkScheduleServiceConfirmRejectsUnknownRun(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	_, err := f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: "nope"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestBulkScheduleServiceConfirmRejectsExpiredRun(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	preview, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)

	// Age the stored run past the TTL.
	run, ok := f.svc.store.Get(preview.RunID)
	require.True(t, ok)
	run.RequestedAt = time.Now().Add(-2 * time.Minute)
	f.svc.store.Save(run)

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestBulkScheduleServiceConfirmTwiceConflicts(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	preview, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)

	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
}

func TestBulkScheduleServiceConfirmRejectsEmptyRun(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	f.roster.students = nil
	req := previewRequest()
	req.StudentIDs = nil
	req.ClassName = "7Z"

	preview, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, preview.Assigned)

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPreconditionFailed))
}

func TestBulkScheduleServiceConfirmRollsBackOnWriteFailure(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	preview, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)

	f.calls.err = assert.AnError
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectRollback()

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	require.Error(t, err)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())

	// A failed write leaves the run eligible for retry.
	f.calls.err = nil
	f.sqlMock.ExpectBegin()
	f.sqlMock.ExpectCommit()

	_, err = f.svc.Confirm(context.Background(), dto.BulkScheduleConfirmRequest{RunID: preview.RunID})
	assert.NoError(t, err)
}

func TestBulkScheduleServicePreviewSkipsMalformedWindows(t *testing.T) {
	f := newBulkFixture(t)
	defer f.cleanup()

	f.windows.rows = append(f.windows.rows, models.AvailabilityWindow{
		ID: "w-bad", DayOfWeek: "MONDAY", Category: "calls", StartTime: "9am", EndTime: "10:00",
	})

	resp, err := f.svc.Preview(context.Background(), previewRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Assigned)
}
