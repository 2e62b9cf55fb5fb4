package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/maamarmordechaibp/school-management-sub001/internal/dto"
	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	"github.com/maamarmordechaibp/school-management-sub001/internal/scheduler"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
)

type bulkAvailabilityReader interface {
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error)
}

type rosterReader interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

type callLogBatchWriter interface {
	UpsertBatch(ctx context.Context, tx *sqlx.Tx, logs []models.CallLog) error
}

type meetingBatchWriter interface {
	UpsertBatch(ctx context.Context, tx *sqlx.Tx, meetings []models.Meeting) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// BulkScheduleConfig governs bulk scheduling behaviour.
type BulkScheduleConfig struct {
	RunTTL            time.Duration
	DefaultDayHorizon int
	MaxRosterSize     int
}

// BulkScheduleService previews and persists bulk appointment runs. A
// preview packs the roster in memory and parks the result under a run
// token; persistence only ever writes what a token still references, so
// a stale browser tab cannot commit a recomputed schedule.
type BulkScheduleService struct {
	windows   bulkAvailabilityReader
	students  rosterReader
	callLogs  callLogBatchWriter
	meetings  meetingBatchWriter
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BulkScheduleConfig
	store     *runStore
	metrics   *MetricsService
}

// WithMetrics attaches Prometheus instrumentation to run outcomes.
func (s *BulkScheduleService) WithMetrics(m *MetricsService) *BulkScheduleService {
	s.metrics = m
	return s
}

// NewBulkScheduleService wires bulk scheduling dependencies.
func NewBulkScheduleService(
	windows bulkAvailabilityReader,
	students rosterReader,
	callLogs callLogBatchWriter,
	meetings meetingBatchWriter,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg BulkScheduleConfig,
) *BulkScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 30 * time.Minute
	}
	if cfg.DefaultDayHorizon <= 0 {
		cfg.DefaultDayHorizon = scheduler.DefaultDayHorizon
	}
	if cfg.MaxRosterSize <= 0 {
		cfg.MaxRosterSize = 500
	}
	return &BulkScheduleService{
		windows:   windows,
		students:  students,
		callLogs:  callLogs,
		meetings:  meetings,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newRunStore(cfg.RunTTL),
	}
}

// Preview packs the requested roster into availability windows without
// touching the database beyond the two reads.
func (s *BulkScheduleService) Preview(ctx context.Context, req dto.BulkSchedulePreviewRequest) (*dto.BulkSchedulePreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk schedule payload")
	}

	category, err := scheduler.ParseCategory(req.Category)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must use YYYY-MM-DD")
	}
	allowedWeekdays := make([]time.Weekday, 0, len(req.AllowedWeekdays))
	for _, name := range req.AllowedWeekdays {
		day, err := scheduler.ParseWeekday(name)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		allowedWeekdays = append(allowedWeekdays, day)
	}

	roster, err := s.loadRoster(ctx, req)
	if err != nil {
		return nil, err
	}

	windows, err := s.loadWindows(ctx, category)
	if err != nil {
		return nil, err
	}

	horizon := req.DayHorizon
	if horizon == 0 {
		horizon = s.cfg.DefaultDayHorizon
	}

	subjects := make([]scheduler.Subject, 0, len(roster))
	byID := make(map[string]models.Student, len(roster))
	for _, student := range roster {
		subjects = append(subjects, scheduler.Subject{
			ID:           student.ID,
			DisplayName:  student.FullName,
			DisplayClass: student.ClassName,
		})
		byID[student.ID] = student
	}

	assignments, err := scheduler.Pack(windows, subjects, scheduler.Config{
		DurationMinutes: req.DurationMinutes,
		StartDate:       startDate,
		AllowedWeekdays: allowedWeekdays,
		Category:        category,
		DayHorizon:      horizon,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRunPreviewed(len(assignments))

	run := scheduleRun{
		RunID:           uuid.NewString(),
		Category:        category,
		DurationMinutes: req.DurationMinutes,
		Requested:       len(roster),
		Assignments:     assignments,
		Students:        byID,
		RequestedAt:     time.Now().UTC(),
	}
	s.store.Save(run)

	s.logger.Info("bulk schedule previewed",
		zap.String("run_id", run.RunID),
		zap.String("category", string(category)),
		zap.Int("requested", run.Requested),
		zap.Int("assigned", len(assignments)),
	)

	return &dto.BulkSchedulePreviewResponse{
		RunID:       run.RunID,
		Category:    string(category),
		Requested:   run.Requested,
		Assigned:    len(assignments),
		Complete:    len(assignments) == run.Requested,
		ExpiresAt:   run.RequestedAt.Add(s.cfg.RunTTL),
		Assignments: assignmentViews(assignments, byID),
	}, nil
}

// Confirm persists a previewed run as call logs or meetings in a single
// transaction. The write is all-or-nothing; a failed transaction leaves
// the run available for retry and the upsert keys make that retry
// idempotent.
func (s *BulkScheduleService) Confirm(ctx context.Context, req dto.BulkScheduleConfirmRequest) (*dto.BulkScheduleConfirmResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}
	run, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found or expired")
	}
	if run.Confirmed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "schedule run already persisted")
	}
	if len(run.Assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "run produced no assignments to persist")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	switch run.Category {
	case scheduler.CategoryCalls:
		logs := make([]models.CallLog, 0, len(run.Assignments))
		for _, a := range run.Assignments {
			logs = append(logs, models.CallLog{
				StudentID: a.SubjectID,
				CallDate:  a.Date,
				StartTime: a.Start.String(),
				EndTime:   a.End.String(),
			})
		}
		if err = s.callLogs.UpsertBatch(ctx, tx, logs); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist call logs")
			return nil, err
		}
	case scheduler.CategoryMeetings:
		meetings := make([]models.Meeting, 0, len(run.Assignments))
		for _, a := range run.Assignments {
			meetings = append(meetings, models.Meeting{
				StudentID:       a.SubjectID,
				ScheduledAt:     combineDateAndClock(a.Date, a.Start),
				DurationMinutes: run.DurationMinutes,
				Status:          models.MeetingStatusScheduled,
			})
		}
		if err = s.meetings.UpsertBatch(ctx, tx, meetings); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist meetings")
			return nil, err
		}
	default:
		err = appErrors.Clone(appErrors.ErrInternal, "run has unknown category")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule run")
		return nil, err
	}

	s.store.MarkConfirmed(req.RunID)
	s.metrics.RecordRunConfirmed()

	s.logger.Info("bulk schedule persisted",
		zap.String("run_id", run.RunID),
		zap.String("category", string(run.Category)),
		zap.Int("inserted", len(run.Assignments)),
	)

	return &dto.BulkScheduleConfirmResponse{
		RunID:         run.RunID,
		Category:      string(run.Category),
		InsertedCount: len(run.Assignments),
	}, nil
}

// Run exposes a stored run so exports can render its assignments.
func (s *BulkScheduleService) Run(runID string) (scheduleRun, bool) {
	return s.store.Get(runID)
}

func (s *BulkScheduleService) loadRoster(ctx context.Context, req dto.BulkSchedulePreviewRequest) ([]models.Student, error) {
	switch {
	case len(req.StudentIDs) > 0:
		if len(req.StudentIDs) > s.cfg.MaxRosterSize {
			return nil, appErrors.Clone(appErrors.ErrValidation, "roster exceeds the maximum supported size")
		}
		students, err := s.students.FindByIDs(ctx, req.StudentIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		if len(students) != len(req.StudentIDs) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more roster students not found")
		}
		return students, nil
	case req.ClassName != "":
		active := true
		students, _, err := s.students.List(ctx, models.StudentFilter{
			ClassName: req.ClassName,
			Active:    &active,
			PageSize:  s.cfg.MaxRosterSize,
			SortBy:    "full_name",
			SortOrder: "ASC",
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
		}
		return students, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "either studentIds or className is required")
}

func (s *BulkScheduleService) loadWindows(ctx context.Context, category scheduler.Category) ([]scheduler.Window, error) {
	rows, err := s.windows.List(ctx, models.AvailabilityFilter{Category: string(category)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability windows")
	}
	windows := make([]scheduler.Window, 0, len(rows))
	for _, row := range rows {
		window, err := windowFromModel(row)
		if err != nil {
			// Rows predating write-time validation; they cannot be packed.
			s.logger.Warn("skipping malformed availability window", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func windowFromModel(row models.AvailabilityWindow) (scheduler.Window, error) {
	weekday, err := scheduler.ParseWeekday(row.DayOfWeek)
	if err != nil {
		return scheduler.Window{}, err
	}
	category, err := scheduler.ParseCategory(row.Category)
	if err != nil {
		return scheduler.Window{}, err
	}
	start, err := scheduler.ParseClock(row.StartTime)
	if err != nil {
		return scheduler.Window{}, err
	}
	end, err := scheduler.ParseClock(row.EndTime)
	if err != nil {
		return scheduler.Window{}, err
	}
	return scheduler.Window{Weekday: weekday, Category: category, Start: start, End: end}, nil
}

func assignmentViews(assignments []scheduler.Assignment, students map[string]models.Student) []dto.AssignmentView {
	views := make([]dto.AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		student := students[a.SubjectID]
		views = append(views, dto.AssignmentView{
			StudentID:   a.SubjectID,
			StudentName: student.FullName,
			ClassName:   student.ClassName,
			Date:        a.Date.Format("2006-01-02"),
			StartTime:   a.Start.String(),
			EndTime:     a.End.String(),
		})
	}
	return views
}

func combineDateAndClock(date time.Time, clock scheduler.ClockMinutes) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(clock)/60, int(clock)%60, 0, 0, date.Location())
}

// --- Run store ---

type scheduleRun struct {
	RunID           string
	Category        scheduler.Category
	DurationMinutes int
	Requested       int
	Assignments     []scheduler.Assignment
	Students        map[string]models.Student
	RequestedAt     time.Time
	Confirmed       bool
}

type runStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleRun
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		items: make(map[string]scheduleRun),
	}
}

func (s *runStore) Save(run scheduleRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.RunID] = run
}

func (s *runStore) Get(id string) (scheduleRun, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleRun{}, false
	}
	if time.Since(run.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleRun{}, false
	}
	return run, true
}

func (s *runStore) MarkConfirmed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.items[id]; ok {
		run.Confirmed = true
		s.items[id] = run
	}
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
