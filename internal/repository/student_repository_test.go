package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
)

func studentColumns() []string {
	return []string{"id", "full_name", "class_name", "phone", "email", "active", "created_at", "updated_at"}
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentColumns()).
		AddRow("s1", "Avi Cohen", "4A", "050-1", "avi@example.com", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, full_name, class_name, phone, email, active, created_at, updated_at").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDsPreservesOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	// Database returns rows in its own order; the repo must restore the
	// caller's priority order.
	rows := sqlmock.NewRows(studentColumns()).
		AddRow("s1", "Avi Cohen", "4A", "", "", true, time.Now(), time.Now()).
		AddRow("s2", "Sara Levi", "4A", "", "", true, time.Now(), time.Now()).
		AddRow("s3", "Dan Mizrahi", "4B", "", "", true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, full_name, class_name, phone, email, active, created_at, updated_at").
		WithArgs("s3", "s1", "s2").
		WillReturnRows(rows)

	students, err := repo.FindByIDs(context.Background(), []string{"s3", "s1", "s2"})
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "s3", students[0].ID)
	assert.Equal(t, "s1", students[1].ID)
	assert.Equal(t, "s2", students[2].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Student{FullName: "Avi Cohen", ClassName: "4A", Active: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET active = false").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
