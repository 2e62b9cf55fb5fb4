package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

type fakeAvailabilityRepo struct {
	rows    []models.AvailabilityWindow
	byID    map[string]*models.AvailabilityWindow
	created *models.AvailabilityWindow
	updated *models.AvailabilityWindow
	deleted string
	err     error
}

func (f *fakeAvailabilityRepo) List(_ context.Context, _ models.AvailabilityFilter) ([]models.AvailabilityWindow, error) {
	return f.rows, f.err
}

func (f *fakeAvailabilityRepo) FindByID(_ context.Context, id string) (*models.AvailabilityWindow, error) {
	if w, ok := f.byID[id]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAvailabilityRepo) Create(_ context.Context, window *models.AvailabilityWindow) error {
	f.created = window
	return f.err
}

func (f *fakeAvailabilityRepo) Update(_ context.Context, window *models.AvailabilityWindow) error {
	f.updated = window
	return f.err
}

func (f *fakeAvailabilityRepo) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeCache struct {
	store       map[string][]models.AvailabilityWindow
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]models.AvailabilityWindow)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	rows, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*[]models.AvailabilityWindow) = rows
	return nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.store[key] = value.([]models.AvailabilityWindow)
	return nil
}

func (f *fakeCache) DeleteByPattern(_ context.Context, pattern string) error {
	f.invalidated = append(f.invalidated, pattern)
	f.store = make(map[string][]models.AvailabilityWindow)
	return nil
}

func validWindowRequest() AvailabilityWindowRequest {
	return AvailabilityWindowRequest{
		DayOfWeek: "monday",
		Category:  "calls",
		StartTime: "09:00",
		EndTime:   "10:30",
	}
}

func TestAvailabilityServiceCreateNormalisesPayload(t *testing.T) {
	repo := &fakeAvailabilityRepo{}
	svc := NewAvailabilityService(repo, nil, nil, nil, 0)

	window, err := svc.Create(context.Background(), validWindowRequest())
	require.NoError(t, err)

	assert.Equal(t, "MONDAY", window.DayOfWeek)
	assert.Equal(t, "calls", window.Category)
	assert.Equal(t, "09:00", window.StartTime)
	assert.Equal(t, "10:30", window.EndTime)
	assert.Equal(t, window, repo.created)
}

func TestAvailabilityServiceCreateRejectsBadWeekday(t *testing.T) {
	svc := NewAvailabilityService(&fakeAvailabilityRepo{}, nil, nil, nil, 0)

	req := validWindowRequest()
	req.DayOfWeek = "someday"

	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestAvailabilityServiceCreateRejectsBadCategory(t *testing.T) {
	svc := NewAvailabilityService(&fakeAvailabilityRepo{}, nil, nil, nil, 0)

	req := validWindowRequest()
	req.Category = "homework"

	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestAvailabilityServiceCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewAvailabilityService(&fakeAvailabilityRepo{}, nil, nil, nil, 0)

	req := validWindowRequest()
	req.StartTime = "11:00"
	req.EndTime = "09:00"

	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestAvailabilityServiceListServesSecondReadFromCache(t *testing.T) {
	repo := &fakeAvailabilityRepo{rows: []models.AvailabilityWindow{
		{ID: "w-1", DayOfWeek: "MONDAY", Category: "calls", StartTime: "09:00", EndTime: "10:00"},
	}}
	cache := newFakeCache()
	svc := NewAvailabilityService(repo, cache, nil, nil, time.Minute)

	first, err := svc.List(context.Background(), models.AvailabilityFilter{Category: "calls"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	repo.rows = nil // cache must answer the second read
	second, err := svc.List(context.Background(), models.AvailabilityFilter{Category: "calls"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailabilityServiceWritesInvalidateCache(t *testing.T) {
	repo := &fakeAvailabilityRepo{}
	cache := newFakeCache()
	svc := NewAvailabilityService(repo, cache, nil, nil, time.Minute)

	_, err := svc.Create(context.Background(), validWindowRequest())
	require.NoError(t, err)

	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, "availability:windows:*", cache.invalidated[0])
}

func TestAvailabilityServiceGetUnknownWindow(t *testing.T) {
	svc := NewAvailabilityService(&fakeAvailabilityRepo{byID: map[string]*models.AvailabilityWindow{}}, nil, nil, nil, 0)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestAvailabilityServiceDeleteInvalidatesCache(t *testing.T) {
	repo := &fakeAvailabilityRepo{byID: map[string]*models.AvailabilityWindow{
		"w-1": {ID: "w-1", DayOfWeek: "MONDAY", Category: "calls", StartTime: "09:00", EndTime: "10:00"},
	}}
	cache := newFakeCache()
	svc := NewAvailabilityService(repo, cache, nil, nil, time.Minute)

	require.NoError(t, svc.Delete(context.Background(), "w-1"))
	assert.Equal(t, "w-1", repo.deleted)
	assert.Len(t, cache.invalidated, 1)
}
