package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/export"
	"github.com/noah-isme/studio-booking-api/pkg/jobs"
	"github.com/noah-isme/studio-booking-api/pkg/storage"
)

const (
	exportJobQueued = "QUEUED"
	exportJobReady  = "READY"
	exportJobFailed = "FAILED"
)

type exportSeriesReader interface {
	FindByID(ctx context.Context, id string) (*models.Series, error)
}

type exportOccurrenceReader interface {
	ListBySeries(ctx context.Context, seriesID string) ([]models.Occurrence, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportJob struct {
	ID          string
	SeriesID    string
	HorizonDays int
	Status      string
	FilePath    string
	DownloadURL string
	ExpiresAt   *time.Time
	Error       string
	CreatedAt   time.Time
}

// exportJobStore keeps job state in memory with a TTL so abandoned entries
// age out. Restarting the process loses pending jobs but never the files
// already written.
type exportJobStore struct {
	mu   sync.Mutex
	jobs map[string]*exportJob
	ttl  time.Duration
}

func newExportJobStore(ttl time.Duration) *exportJobStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &exportJobStore{jobs: make(map[string]*exportJob), ttl: ttl}
}

func (s *exportJobStore) put(job *exportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.jobs[job.ID] = job
}

func (s *exportJobStore) get(id string) (*exportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (s *exportJobStore) update(id string, fn func(*exportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *exportJobStore) evictLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix          string
	Workers            int
	JobTTL             time.Duration
	DefaultHorizonDays int
}

// ExportService renders schedule sheets asynchronously. Requests are queued,
// workers render the PDF into local storage, and completed jobs expose a
// signed download token.
type ExportService struct {
	series      exportSeriesReader
	occs        exportOccurrenceReader
	pdf         pdfRenderer
	storage     fileStorage
	signer      *storage.SignedURLSigner
	queue       *jobs.Queue
	jobStore    *exportJobStore
	logger      *zap.Logger
	apiPrefix   string
	horizonDays int
}

// NewExportService wires export dependencies. Start must be called before
// queuing work.
func NewExportService(series exportSeriesReader, occs exportOccurrenceReader, store fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = 90
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	s := &ExportService{
		series:      series,
		occs:        occs,
		pdf:         export.NewPDFExporter(),
		storage:     store,
		signer:      signer,
		jobStore:    newExportJobStore(cfg.JobTTL),
		logger:      logger,
		apiPrefix:   cfg.APIPrefix,
		horizonDays: cfg.DefaultHorizonDays,
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Queue registers an export job for the series and hands it to the workers.
func (s *ExportService) Queue(ctx context.Context, seriesID string, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if _, err := s.series.FindByID(ctx, seriesID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.horizonDays
	}
	job := &exportJob{
		ID:          uuid.NewString(),
		SeriesID:    seriesID,
		HorizonDays: horizon,
		Status:      exportJobQueued,
		CreatedAt:   time.Now().UTC(),
	}
	s.jobStore.put(job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "series-export", Payload: job.ID}); err != nil {
		s.jobStore.update(job.ID, func(j *exportJob) {
			j.Status = exportJobFailed
			j.Error = "export queue unavailable"
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.response(job), nil
}

// Job returns the state of a previously queued export.
func (s *ExportService) Job(jobID string) (*dto.ExportJobResponse, error) {
	job, ok := s.jobStore.get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return s.response(job), nil
}

// OpenDownload validates a signed token and opens the exported file.
func (s *ExportService) OpenDownload(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, nil
}

// Cleanup removes rendered files older than the given TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export cleanup removed files", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	jobID, _ := queued.Payload.(string)
	job, ok := s.jobStore.get(jobID)
	if !ok {
		s.logger.Warn("export job vanished before processing", zap.String("job_id", jobID))
		return nil
	}

	if err := s.render(ctx, job); err != nil {
		s.jobStore.update(jobID, func(j *exportJob) {
			j.Status = exportJobFailed
			j.Error = err.Error()
		})
		return err
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, job *exportJob) error {
	series, err := s.series.FindByID(ctx, job.SeriesID)
	if err != nil {
		return fmt.Errorf("load series for export: %w", err)
	}
	occurrences, err := s.occs.ListBySeries(ctx, job.SeriesID)
	if err != nil {
		return fmt.Errorf("load occurrences for export: %w", err)
	}

	cutoff := models.DateOf(time.Now().UTC()).AddDate(0, 0, job.HorizonDays)
	dataset := scheduleDataset(occurrences, cutoff)

	payload, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule %s", series.ID))
	if err != nil {
		return fmt.Errorf("render schedule sheet: %w", err)
	}

	relPath := fmt.Sprintf("series/%s/%s.pdf", job.SeriesID, job.ID)
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return fmt.Errorf("store schedule sheet: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}

	s.jobStore.update(job.ID, func(j *exportJob) {
		j.Status = exportJobReady
		j.FilePath = relPath
		j.DownloadURL = s.apiPrefix + "/exports/download/" + token
		j.ExpiresAt = &expiresAt
	})
	s.logger.Info("export rendered", zap.String("job_id", job.ID), zap.String("series_id", job.SeriesID))
	return nil
}

func (s *ExportService) response(job *exportJob) *dto.ExportJobResponse {
	return &dto.ExportJobResponse{
		JobID:       job.ID,
		SeriesID:    job.SeriesID,
		Status:      job.Status,
		DownloadURL: job.DownloadURL,
		ExpiresAt:   job.ExpiresAt,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
	}
}

func scheduleDataset(occurrences []models.Occurrence, cutoff time.Time) export.Dataset {
	headers := []string{"Date", "Weekday", "Start", "End", "State", "Cancelled"}
	rows := make([]map[string]string, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.Date.After(cutoff) {
			continue
		}
		slot := occ.Slot()
		cancelled := "no"
		if occ.Cancelled {
			cancelled = "yes"
		}
		rows = append(rows, map[string]string{
			"Date":      models.DateKey(occ.Date),
			"Weekday":   occ.Date.Weekday().String(),
			"Start":     models.FormatClock(slot.StartMin),
			"End":       models.FormatClock(slot.EndMin),
			"State":     string(occ.State),
			"Cancelled": cancelled,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
