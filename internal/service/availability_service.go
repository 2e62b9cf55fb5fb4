package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	"github.com/maamarmordechaibp/school-management-sub001/internal/scheduler"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

const availabilityCachePrefix = "availability:windows"

type availabilityRepository interface {
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Update(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, id string) error
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityWindowRequest holds payload for creating or updating windows.
type AvailabilityWindowRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	Category  string `json:"category" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// AvailabilityService handles administration of recurring availability windows.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     availabilityCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
	metrics   *MetricsService
}

// WithMetrics attaches Prometheus instrumentation to cache lookups.
func (s *AvailabilityService) WithMetrics(m *MetricsService) *AvailabilityService {
	s.metrics = m
	return s
}

// NewAvailabilityService constructs the availability service.
func NewAvailabilityService(repo availabilityRepository, cache availabilityCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AvailabilityService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns availability windows, serving category-only queries from cache.
func (s *AvailabilityService) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error) {
	cacheable := s.cache != nil && filter.DayOfWeek == ""
	key := fmt.Sprintf("%s:%s", availabilityCachePrefix, filterCacheKey(filter.Category))

	if cacheable {
		var cached []models.AvailabilityWindow
		start := time.Now()
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
	}

	windows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability windows")
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, windows, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return windows, nil
}

// Get returns a single window.
func (s *AvailabilityService) Get(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability window")
	}
	return window, nil
}

// Create registers a new availability window.
func (s *AvailabilityService) Create(ctx context.Context, req AvailabilityWindowRequest) (*models.AvailabilityWindow, error) {
	window, err := s.windowFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability window")
	}
	s.invalidate(ctx)
	return window, nil
}

// Update modifies an existing window.
func (s *AvailabilityService) Update(ctx context.Context, id string, req AvailabilityWindowRequest) (*models.AvailabilityWindow, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	window, err := s.windowFromRequest(req)
	if err != nil {
		return nil, err
	}
	window.ID = existing.ID
	window.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability window")
	}
	s.invalidate(ctx)
	return window, nil
}

// Delete removes a window.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability window")
	}
	s.invalidate(ctx)
	return nil
}

// windowFromRequest validates and normalises the payload. Typo-prone
// weekday and category tags are rejected here so the scheduler never
// silently skips a misspelled window.
func (s *AvailabilityService) windowFromRequest(req AvailabilityWindowRequest) (*models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window payload")
	}
	weekday, err := scheduler.ParseWeekday(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	category, err := scheduler.ParseCategory(req.Category)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	start, err := scheduler.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	end, err := scheduler.ParseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return &models.AvailabilityWindow{
		DayOfWeek: scheduler.WeekdayName(weekday),
		Category:  string(category),
		StartTime: start.String(),
		EndTime:   end.String(),
	}, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, availabilityCachePrefix+":*"); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func filterCacheKey(category string) string {
	if category == "" {
		return "all"
	}
	return category
}
