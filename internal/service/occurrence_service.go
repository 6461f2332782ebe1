package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type occurrenceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Occurrence, error)
	List(ctx context.Context, filter models.OccurrenceFilter) ([]models.Occurrence, int, error)
	ListBySeries(ctx context.Context, seriesID string) ([]models.Occurrence, error)
	Cancel(ctx context.Context, id string) error
}

// OccurrenceService reads and cancels generated occurrences. Occurrences are
// never deleted here; cancellation keeps the row so the generation identity
// check still sees it.
type OccurrenceService struct {
	repo   occurrenceRepository
	logger *zap.Logger
}

// NewOccurrenceService wires occurrence dependencies.
func NewOccurrenceService(repo occurrenceRepository, logger *zap.Logger) *OccurrenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{repo: repo, logger: logger}
}

// Get loads one occurrence.
func (s *OccurrenceService) Get(ctx context.Context, id string) (*models.Occurrence, error) {
	occ, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	return occ, nil
}

// List returns occurrences matching the filter.
func (s *OccurrenceService) List(ctx context.Context, req dto.OccurrenceListRequest) ([]models.Occurrence, *models.Pagination, error) {
	filter := models.OccurrenceFilter{
		SeriesID:  req.SeriesID,
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		BoothID:   req.BoothID,
		State:     models.OccurrenceState(req.State),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.DateFrom != "" {
		from, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be formatted as YYYY-MM-DD")
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must be formatted as YYYY-MM-DD")
		}
		filter.DateTo = &to
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}
	return list, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListBySeries returns every occurrence generated from a series.
func (s *OccurrenceService) ListBySeries(ctx context.Context, seriesID string) ([]models.Occurrence, error) {
	list, err := s.repo.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list occurrences")
	}
	return list, nil
}

// Cancel flags an occurrence as cancelled. The row is kept so a later
// generation run will not recreate the slot.
func (s *OccurrenceService) Cancel(ctx context.Context, id string, req dto.CancelOccurrenceRequest) error {
	occ, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "occurrence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	if occ.Cancelled {
		return appErrors.Clone(appErrors.ErrConflict, "occurrence already cancelled")
	}
	if err := s.repo.Cancel(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel occurrence")
	}
	fields := []zap.Field{zap.String("occurrence_id", id)}
	if req.ActorID != "" {
		fields = append(fields, zap.String("actor_id", req.ActorID))
	}
	if req.Reason != nil {
		fields = append(fields, zap.String("reason", *req.Reason))
	}
	s.logger.Info("occurrence cancelled", fields...)
	return nil
}
