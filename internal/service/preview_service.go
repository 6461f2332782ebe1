package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type previewSeriesReader interface {
	FindByID(ctx context.Context, id string) (*models.Series, error)
}

type previewOccurrenceReader interface {
	FindByDatesAndParticipants(ctx context.Context, dates []time.Time, refs models.ParticipantRefs) ([]models.Occurrence, error)
}

// PreviewConfig governs preview behaviour.
type PreviewConfig struct {
	DefaultHorizonDays int
	CacheTTL           time.Duration
}

// PreviewService reports would-be conflicts for a series over a horizon
// without taking the generation lock or writing anything. It shares the
// generator's window and candidate computation and may be called repeatedly
// and concurrently.
type PreviewService struct {
	series      previewSeriesReader
	occs        previewOccurrenceReader
	resolver    availabilityResolver
	cache       *CacheService
	logger      *zap.Logger
	horizonDays int
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewPreviewService wires preview dependencies.
func NewPreviewService(series previewSeriesReader, occs previewOccurrenceReader, resolver availabilityResolver, cache *CacheService, logger *zap.Logger, cfg PreviewConfig) *PreviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultHorizonDays <= 0 {
		cfg.DefaultHorizonDays = 30
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	return &PreviewService{
		series:      series,
		occs:        occs,
		resolver:    resolver,
		cache:       cache,
		logger:      logger,
		horizonDays: cfg.DefaultHorizonDays,
		cacheTTL:    cfg.CacheTTL,
		now:         time.Now,
	}
}

// InvalidateSeries drops cached previews after a generation run changes the
// underlying occurrences.
func (s *PreviewService) InvalidateSeries(ctx context.Context, seriesID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, previewCachePattern(seriesID)); err != nil {
		s.logger.Warn("failed to invalidate preview cache", zap.String("series_id", seriesID), zap.Error(err))
	}
}

// Preview analyses the series over the horizon and reports every would-be
// conflict, grouped by date, plus summary counts.
func (s *PreviewService) Preview(ctx context.Context, seriesID string, horizonDays int) (*dto.PreviewResult, error) {
	if horizonDays <= 0 {
		horizonDays = s.horizonDays
	}

	cacheKey := previewCacheKey(seriesID, horizonDays)
	if s.cache != nil {
		var cached dto.PreviewResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	series, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	today := s.today(series)
	from, to := generationWindow(series, today, horizonDays)
	candidates := candidateDates(series, from, to)

	existing := make(map[string][]models.Occurrence)
	if len(candidates) > 0 {
		refs := models.ParticipantRefs{TeacherID: series.TeacherID, StudentID: series.StudentID, BoothID: series.BoothID}
		occurrences, err := s.occs.FindByDatesAndParticipants(ctx, candidates, refs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prefetch occurrences")
		}
		for _, occ := range occurrences {
			key := models.DateKey(occ.Date)
			existing[key] = append(existing[key], occ)
		}
	}

	result := &dto.PreviewResult{
		SeriesID:        seriesID,
		Conflicts:       []dto.PreviewConflict{},
		ConflictsByDate: make(map[string][]dto.PreviewConflict),
		Summary:         dto.PreviewSummary{TotalSessions: len(candidates)},
	}

	window := series.Window()
	for _, date := range candidates {
		key := models.DateKey(date)
		var entries []dto.PreviewConflict

		for _, kind := range hardConflicts(series, window, existing[key]) {
			entries = append(entries, dto.PreviewConflict{
				Date:    key,
				Kind:    kind,
				Message: fmt.Sprintf("%s overlaps an existing booking at %s", kind, window),
			})
		}

		softEntries, err := s.softEntries(ctx, series, date, window)
		if err != nil {
			return nil, err
		}
		entries = append(entries, softEntries...)

		if len(entries) > 0 {
			result.Summary.SessionsWithConflicts++
			result.Conflicts = append(result.Conflicts, entries...)
			result.ConflictsByDate[key] = entries
		}
	}
	result.Summary.ValidSessions = result.Summary.TotalSessions - result.Summary.SessionsWithConflicts

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache preview result", zap.String("series_id", seriesID), zap.Error(err))
		}
	}
	return result, nil
}

func (s *PreviewService) softEntries(ctx context.Context, series *models.Series, date time.Time, window models.TimeSlot) ([]dto.PreviewConflict, error) {
	key := models.DateKey(date)
	var entries []dto.PreviewConflict

	appendSide := func(details models.AvailabilityDetails, unavailable, wrongTime models.ConflictKind) {
		for _, kind := range sideConflict(details, unavailable, wrongTime) {
			entries = append(entries, dto.PreviewConflict{
				Date:    key,
				Kind:    kind,
				OwnerID: details.OwnerID,
				Message: fmt.Sprintf("%s has no effective window covering %s", details.OwnerID, window),
			})
		}
	}

	switch {
	case series.TeacherID != nil && series.StudentID != nil:
		shared, err := s.resolver.ResolveShared(ctx, *series.TeacherID, *series.StudentID, date, &window, false)
		if err != nil {
			return nil, err
		}
		appendSide(shared.A, models.ConflictTeacherUnavail, models.ConflictTeacherWrongTime)
		appendSide(shared.B, models.ConflictStudentUnavail, models.ConflictStudentWrongTime)
		if noSharedWindow(shared) {
			entries = append(entries, dto.PreviewConflict{
				Date:    key,
				Kind:    models.ConflictNoSharedWindow,
				Message: "participants are individually available but share no window covering " + window.String(),
			})
		}
	case series.TeacherID != nil:
		details, err := s.resolver.Resolve(ctx, *series.TeacherID, date, &window)
		if err != nil {
			return nil, err
		}
		appendSide(*details, models.ConflictTeacherUnavail, models.ConflictTeacherWrongTime)
	case series.StudentID != nil:
		details, err := s.resolver.Resolve(ctx, *series.StudentID, date, &window)
		if err != nil {
			return nil, err
		}
		appendSide(*details, models.ConflictStudentUnavail, models.ConflictStudentWrongTime)
	}
	return entries, nil
}

func (s *PreviewService) today(series *models.Series) time.Time {
	local := s.now().In(series.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func previewCacheKey(seriesID string, horizonDays int) string {
	return fmt.Sprintf("preview:%s:%d", seriesID, horizonDays)
}

func previewCachePattern(seriesID string) string {
	return fmt.Sprintf("preview:%s:*", seriesID)
}
