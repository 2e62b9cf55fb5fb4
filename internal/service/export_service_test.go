package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/dto"
	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	"github.com/maamarmordechaibp/school-management-sub001/internal/scheduler"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/storage"
)

type fakeRunProvider struct {
	runs map[string]scheduleRun
}

func (f *fakeRunProvider) Run(id string) (scheduleRun, bool) {
	run, ok := f.runs[id]
	return run, ok
}

func confirmedRun() scheduleRun {
	monday := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return scheduleRun{
		RunID:           "run-1",
		Category:        scheduler.CategoryCalls,
		DurationMinutes: 15,
		Requested:       2,
		Assignments: []scheduler.Assignment{
			{SubjectID: "s-1", Date: monday, Start: 9 * 60, End: 9*60 + 15},
			{SubjectID: "s-2", Date: monday, Start: 9*60 + 15, End: 9*60 + 30},
		},
		Students: map[string]models.Student{
			"s-1": {ID: "s-1", FullName: "Avi Cohen", ClassName: "3A"},
			"s-2": {ID: "s-2", FullName: "Ben Levi", ClassName: "3A"},
		},
		RequestedAt: time.Now().UTC(),
		Confirmed:   true,
	}
}

func newExportFixture(t *testing.T) (*ExportService, *fakeRunProvider) {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	runs := &fakeRunProvider{runs: map[string]scheduleRun{"run-1": confirmedRun()}}

	svc := NewExportService(runs, store, signer, nil, nil, ExportConfig{
		WorkerConcurrency: 1,
		SignedURLTTL:      time.Hour,
		CleanupInterval:   time.Hour,
	})
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc, runs
}

func waitForCompletion(t *testing.T, svc *ExportService, id string) *models.ScheduleExport {
	t.Helper()
	var last *models.ScheduleExport
	require.Eventually(t, func() bool {
		record, err := svc.Get(id)
		if err != nil {
			return false
		}
		last = record
		return record.Status != models.ExportStatusPending
	}, 5*time.Second, 10*time.Millisecond)
	return last
}

func TestExportServiceRendersCSV(t *testing.T) {
	svc, _ := newExportFixture(t)

	record, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "run-1", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusPending, record.Status)

	done := waitForCompletion(t, svc, record.ID)
	require.Equal(t, models.ExportStatusCompleted, done.Status)
	assert.NotEmpty(t, done.DownloadURL)
	require.NotNil(t, done.ExpiresAt)

	file, filename, err := svc.Download(done.DownloadURL)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, record.ID+".csv", filename)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Date,Start,End,Student,Class")
	assert.Contains(t, string(data), "2025-09-01,09:00,09:15,Avi Cohen,3A")
}

func TestExportServiceRendersPDF(t *testing.T) {
	svc, _ := newExportFixture(t)

	record, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "run-1", Format: "pdf"})
	require.NoError(t, err)

	done := waitForCompletion(t, svc, record.ID)
	require.Equal(t, models.ExportStatusCompleted, done.Status)

	file, _, err := svc.Download(done.DownloadURL)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportServiceRejectsUnknownRun(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "missing", Format: "csv"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestExportServiceRejectsUnconfirmedRun(t *testing.T) {
	svc, runs := newExportFixture(t)

	run := confirmedRun()
	run.RunID = "run-2"
	run.Confirmed = false
	runs.runs["run-2"] = run

	_, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "run-2", Format: "csv"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPreconditionFailed))
}

func TestExportServiceRejectsUnsupportedFormat(t *testing.T) {
	svc, _ := newExportFixture(t)

	_, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "run-1", Format: "xlsx"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc, _ := newExportFixture(t)

	record, err := svc.Enqueue(context.Background(), dto.ScheduleExportRequest{RunID: "run-1", Format: "csv"})
	require.NoError(t, err)
	done := waitForCompletion(t, svc, record.ID)

	_, _, err = svc.Download(done.DownloadURL + "x")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden))
}
