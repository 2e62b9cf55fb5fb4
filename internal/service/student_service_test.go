package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

type fakeStudentRepo struct {
	students    []models.Student
	byID        map[string]*models.Student
	nameTaken   bool
	created     *models.Student
	updated     *models.Student
	deactivated string
	err         error
}

func (f *fakeStudentRepo) List(_ context.Context, _ models.StudentFilter) ([]models.Student, int, error) {
	return f.students, len(f.students), f.err
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ExistsByName(_ context.Context, _ string, _ string) (bool, error) {
	return f.nameTaken, f.err
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	f.created = student
	return f.err
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	f.updated = student
	return f.err
}

func (f *fakeStudentRepo) Deactivate(_ context.Context, id string) error {
	f.deactivated = id
	return f.err
}

type fakeCallLogReader struct {
	logs []models.CallLog
	err  error
}

func (f *fakeCallLogReader) ListByStudent(_ context.Context, _ string) ([]models.CallLog, error) {
	return f.logs, f.err
}

func TestStudentServiceCreateMarksActive(t *testing.T) {
	repo := &fakeStudentRepo{}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:  "Avi Cohen",
		ClassName: "3A",
		Email:     "avi@example.org",
	})
	require.NoError(t, err)

	assert.True(t, student.Active)
	assert.Equal(t, student, repo.created)
}

func TestStudentServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := &fakeStudentRepo{nameTaken: true}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{FullName: "Avi Cohen", ClassName: "3A"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
}

func TestStudentServiceCreateRejectsInvalidEmail(t *testing.T) {
	svc := NewStudentService(&fakeStudentRepo{}, &fakeCallLogReader{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:  "Avi Cohen",
		ClassName: "3A",
		Email:     "not-an-email",
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestStudentServiceUpdateAppliesChanges(t *testing.T) {
	repo := &fakeStudentRepo{byID: map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Avi Cohen", ClassName: "3A", Active: true},
	}}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	student, err := svc.Update(context.Background(), "s-1", UpdateStudentRequest{
		FullName:  "Avi Cohen",
		ClassName: "4B",
		Active:    false,
	})
	require.NoError(t, err)

	assert.Equal(t, "4B", student.ClassName)
	assert.False(t, student.Active)
	assert.Equal(t, student, repo.updated)
}

func TestStudentServiceGetUnknownStudent(t *testing.T) {
	svc := NewStudentService(&fakeStudentRepo{byID: map[string]*models.Student{}}, &fakeCallLogReader{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := &fakeStudentRepo{byID: map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Avi Cohen", Active: true},
	}}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "s-1"))
	assert.Equal(t, "s-1", repo.deactivated)
}

func TestStudentServiceListDefaultsPagination(t *testing.T) {
	repo := &fakeStudentRepo{students: []models.Student{{ID: "s-1"}}}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestStudentServiceCallLogsRequireExistingStudent(t *testing.T) {
	repo := &fakeStudentRepo{byID: map[string]*models.Student{}}
	svc := NewStudentService(repo, &fakeCallLogReader{}, nil, nil)

	_, err := svc.CallLogs(context.Background(), "missing")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestStudentServiceCallLogsReturnsRecords(t *testing.T) {
	repo := &fakeStudentRepo{byID: map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Avi Cohen"},
	}}
	logs := &fakeCallLogReader{logs: []models.CallLog{{StudentID: "s-1", StartTime: "09:00", EndTime: "09:15"}}}
	svc := NewStudentService(repo, logs, nil, nil)

	got, err := svc.CallLogs(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "09:00", got[0].StartTime)
}
