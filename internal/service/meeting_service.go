package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

type meetingRepository interface {
	List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, int, error)
}

// MeetingService exposes read access to persisted meetings.
type MeetingService struct {
	repo   meetingRepository
	logger *zap.Logger
}

// NewMeetingService constructs the meeting service.
func NewMeetingService(repo meetingRepository, logger *zap.Logger) *MeetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingService{repo: repo, logger: logger}
}

// List returns meetings matching the filter plus pagination metadata.
func (s *MeetingService) List(ctx context.Context, filter models.MeetingFilter) ([]models.Meeting, *models.Pagination, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.MeetingStatusScheduled, models.MeetingStatusCompleted, models.MeetingStatusCancelled:
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown meeting status")
		}
	}
	meetings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return meetings, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
