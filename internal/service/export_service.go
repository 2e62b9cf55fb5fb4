package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maamarmordechaibp/school-management-sub001/internal/dto"
	"github.com/maamarmordechaibp/school-management-sub001/internal/models"
	appErrors "github.com/maamarmordechaibp/school-management-sub001/pkg/errors"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/export"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/jobs"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/storage"
)

type runProvider interface {
	Run(runID string) (scheduleRun, bool)
}

// ExportConfig tunes the export worker pool and artifact retention.
type ExportConfig struct {
	WorkerConcurrency int
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
}

type exportRecord struct {
	export  models.ScheduleExport
	dataset export.Dataset
	title   string
}

// ExportService renders confirmed schedule runs into downloadable CSV or
// PDF artifacts. Rendering happens on a background queue; the dataset is
// captured at enqueue time so the export outlives the run token's TTL.
type ExportService struct {
	runs      runProvider
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig

	mu      sync.RWMutex
	records map[string]*exportRecord
	metrics *MetricsService

	cancelCleanup context.CancelFunc
}

// NewExportService wires export dependencies and its worker queue.
func NewExportService(
	runs runProvider,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ExportConfig,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}

	s := &ExportService{
		runs:      runs,
		storage:   store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		records:   make(map[string]*exportRecord),
	}
	s.queue = jobs.NewQueue("schedule-exports", s.process, jobs.QueueConfig{
		Workers: cfg.WorkerConcurrency,
		Logger:  logger,
	})
	return s
}

// WithMetrics attaches Prometheus instrumentation to export requests.
func (s *ExportService) WithMetrics(m *MetricsService) *ExportService {
	s.metrics = m
	return s
}

// Start launches the worker pool and the artifact cleanup loop.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cancelCleanup = cancel
	go s.cleanupLoop(cleanupCtx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	if s.cancelCleanup != nil {
		s.cancelCleanup()
	}
	s.queue.Stop()
}

// Enqueue schedules an asynchronous export of a confirmed run.
func (s *ExportService) Enqueue(_ context.Context, req dto.ScheduleExportRequest) (*models.ScheduleExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}

	run, ok := s.runs.Run(req.RunID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found or expired")
	}
	if !run.Confirmed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "schedule run must be confirmed before export")
	}

	record := &exportRecord{
		export: models.ScheduleExport{
			ID:        uuid.NewString(),
			RunID:     run.RunID,
			Format:    req.Format,
			Status:    models.ExportStatusPending,
			CreatedAt: time.Now().UTC(),
		},
		dataset: runDataset(run),
		title:   fmt.Sprintf("%s schedule", run.Category),
	}

	s.mu.Lock()
	s.records[record.export.ID] = record
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: record.export.ID, Type: "schedule-export"}); err != nil {
		s.mu.Lock()
		delete(s.records, record.export.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}

	s.metrics.RecordExport(req.Format)

	snapshot := record.export
	return &snapshot, nil
}

// Get returns the current state of an export job.
func (s *ExportService) Get(id string) (*models.ScheduleExport, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	if !ok {
		s.mu.RUnlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	snapshot := record.export
	s.mu.RUnlock()
	return &snapshot, nil
}

// Download validates a signed token and opens the referenced artifact.
// The returned filename is the suggested attachment name.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	exportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	s.mu.RLock()
	record, ok := s.records[exportID]
	s.mu.RUnlock()
	if !ok || record.export.Status != models.ExportStatusCompleted {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export artifact missing")
	}
	return file, path.Base(relPath), nil
}

func (s *ExportService) process(_ context.Context, job jobs.Job) error {
	s.mu.RLock()
	record, ok := s.records[job.ID]
	s.mu.RUnlock()
	if !ok {
		// Record evicted between enqueue and pickup; nothing to retry.
		return nil
	}

	data, err := s.render(record)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	relPath := path.Join(time.Now().UTC().Format("2006-01-02"), fmt.Sprintf("%s.%s", job.ID, record.export.Format))
	if _, err := s.storage.Save(relPath, data); err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	record.export.Status = models.ExportStatusCompleted
	record.export.FilePath = relPath
	record.export.DownloadURL = token
	record.export.ExpiresAt = &expiresAt
	record.export.CompletedAt = &now
	s.mu.Unlock()

	s.logger.Info("schedule export completed",
		zap.String("export_id", job.ID),
		zap.String("format", record.export.Format),
		zap.String("path", relPath),
	)
	return nil
}

func (s *ExportService) render(record *exportRecord) ([]byte, error) {
	switch record.export.Format {
	case "csv":
		return s.csv.Render(record.dataset)
	case "pdf":
		return s.pdf.Render(record.dataset, record.title)
	default:
		return nil, fmt.Errorf("unsupported export format %q", record.export.Format)
	}
}

func (s *ExportService) fail(id string, cause error) {
	s.mu.Lock()
	if record, ok := s.records[id]; ok {
		record.export.Status = models.ExportStatusFailed
		record.export.Error = cause.Error()
	}
	s.mu.Unlock()
	s.logger.Error("schedule export failed", zap.String("export_id", id), zap.Error(cause))
}

func (s *ExportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(s.cfg.SignedURLTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired export artifacts removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

func runDataset(run scheduleRun) export.Dataset {
	headers := []string{"Date", "Start", "End", "Student", "Class"}
	rows := make([]map[string]string, 0, len(run.Assignments))
	for _, a := range run.Assignments {
		student := run.Students[a.SubjectID]
		rows = append(rows, map[string]string{
			"Date":    a.Date.Format("2006-01-02"),
			"Start":   a.Start.String(),
			"End":     a.End.String(),
			"Student": student.FullName,
			"Class":   student.ClassName,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
