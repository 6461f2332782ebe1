package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
	"github.com/noah-isme/studio-booking-api/pkg/lock"
)

type generatorSeriesStore interface {
	FindByID(ctx context.Context, id string) (*models.Series, error)
	UpdateWatermark(ctx context.Context, id string, watermark time.Time) error
	Delete(ctx context.Context, id string) error
}

type generatorOccurrenceStore interface {
	FindByDatesAndParticipants(ctx context.Context, dates []time.Time, refs models.ParticipantRefs) ([]models.Occurrence, error)
	ExistsByIdentityKey(ctx context.Context, seriesID string, date time.Time, startMin, endMin int) (bool, error)
	Create(ctx context.Context, occ *models.Occurrence) error
}

type availabilityResolver interface {
	Resolve(ctx context.Context, ownerID string, date time.Time, window *models.TimeSlot) (*models.AvailabilityDetails, error)
	ResolveShared(ctx context.Context, ownerA, ownerB string, date time.Time, window *models.TimeSlot, skipBlackoutCheck bool) (*models.SharedAvailability, error)
}

type previewInvalidator interface {
	InvalidateSeries(ctx context.Context, seriesID string)
}

// GenerationConfig governs generator behaviour.
type GenerationConfig struct {
	DefaultLeadDays int
}

// GenerationService advances a series' watermark, materializing concrete
// occurrences for every due date. Runs are guarded by a non-blocking
// per-series lock; a losing caller returns the zero result. The identity
// check on (series, date, start, end) is the correctness boundary for
// duplicates, deliberately independent of the watermark, so partial runs are
// safe to retry.
type GenerationService struct {
	series   generatorSeriesStore
	occs     generatorOccurrenceStore
	resolver availabilityResolver
	locker   lock.Locker
	preview  previewInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
	leadDays int
	now      func() time.Time
}

// NewGenerationService wires generator dependencies.
func NewGenerationService(
	series generatorSeriesStore,
	occs generatorOccurrenceStore,
	resolver availabilityResolver,
	locker lock.Locker,
	preview previewInvalidator,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg GenerationConfig,
) *GenerationService {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultLeadDays <= 0 {
		cfg.DefaultLeadDays = 30
	}
	return &GenerationService{
		series:   series,
		occs:     occs,
		resolver: resolver,
		locker:   locker,
		preview:  preview,
		metrics:  metrics,
		logger:   logger,
		leadDays: cfg.DefaultLeadDays,
		now:      time.Now,
	}
}

// Generate runs one generation pass for the series. Everything before the
// watermark advance aborts atomically on failure; a retry fills in whatever
// is missing without duplicating what a prior partial attempt created.
func (s *GenerationService) Generate(ctx context.Context, seriesID string, req dto.GenerateRequest) (*dto.GenerationResult, error) {
	result := &dto.GenerationResult{}

	lockKey := "series:generate:" + seriesID
	acquired, err := s.locker.TryAcquire(ctx, lockKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		if s.metrics != nil {
			s.metrics.RecordLockContention()
		}
		s.logger.Debug("generation lock held elsewhere, skipping run", zap.String("series_id", seriesID))
		return result, nil
	}
	defer func() {
		if err := s.locker.Release(ctx, lockKey); err != nil {
			s.logger.Warn("failed to release generation lock", zap.String("series_id", seriesID), zap.Error(err))
		}
	}()

	series, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	leadDays := req.LeadWindowDays
	if leadDays <= 0 {
		leadDays = s.leadDays
	}

	from, to := generationWindow(series, s.today(series), leadDays)
	candidates := candidateDates(series, from, to)

	existing, err := s.prefetch(ctx, series, candidates)
	if err != nil {
		s.recordRun("aborted")
		return nil, err
	}

	window := series.Window()
	for _, date := range candidates {
		result.Attempted++

		exists, err := s.occs.ExistsByIdentityKey(ctx, series.ID, date, window.StartMin, window.EndMin)
		if err != nil {
			s.recordRun("aborted")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check occurrence identity")
		}
		if exists {
			result.Skipped++
			continue
		}

		kinds := hardConflicts(series, window, existing[models.DateKey(date)])
		softKinds, err := s.softConflicts(ctx, series, date, window)
		if err != nil {
			s.recordRun("aborted")
			return nil, err
		}
		kinds = append(kinds, softKinds...)

		occ, err := buildOccurrence(series, date, window, kinds)
		if err != nil {
			s.recordRun("aborted")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build occurrence")
		}
		if err := s.occs.Create(ctx, occ); err != nil {
			s.recordRun("aborted")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create occurrence")
		}

		if occ.State == models.OccurrenceConflicted {
			result.CreatedConflicted++
		} else {
			result.CreatedConfirmed++
		}
		if s.metrics != nil {
			s.metrics.RecordOccurrenceCreated(string(occ.State))
		}
		existing[models.DateKey(date)] = append(existing[models.DateKey(date)], *occ)
	}

	if !to.Before(from) {
		if err := s.series.UpdateWatermark(ctx, series.ID, to); err != nil {
			s.recordRun("aborted")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance watermark")
		}
	}

	if exhausted(series, from) {
		if err := s.series.Delete(ctx, series.ID); err != nil {
			s.recordRun("aborted")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exhausted series")
		}
		s.logger.Info("series exhausted and removed", zap.String("series_id", series.ID))
	}

	if s.preview != nil && result.Created() > 0 {
		s.preview.InvalidateSeries(ctx, series.ID)
	}
	s.recordRun("completed")
	s.logger.Info("generation run finished",
		zap.String("series_id", series.ID),
		zap.Int("attempted", result.Attempted),
		zap.Int("confirmed", result.CreatedConfirmed),
		zap.Int("conflicted", result.CreatedConflicted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// today returns the current wall-clock date in the series timezone.
func (s *GenerationService) today(series *models.Series) time.Time {
	local := s.now().In(series.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *GenerationService) prefetch(ctx context.Context, series *models.Series, dates []time.Time) (map[string][]models.Occurrence, error) {
	grouped := make(map[string][]models.Occurrence)
	if len(dates) == 0 {
		return grouped, nil
	}
	refs := models.ParticipantRefs{TeacherID: series.TeacherID, StudentID: series.StudentID, BoothID: series.BoothID}
	occurrences, err := s.occs.FindByDatesAndParticipants(ctx, dates, refs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prefetch occurrences")
	}
	for _, occ := range occurrences {
		key := models.DateKey(occ.Date)
		grouped[key] = append(grouped[key], occ)
	}
	return grouped, nil
}

func (s *GenerationService) softConflicts(ctx context.Context, series *models.Series, date time.Time, window models.TimeSlot) ([]models.ConflictKind, error) {
	var kinds []models.ConflictKind
	switch {
	case series.TeacherID != nil && series.StudentID != nil:
		shared, err := s.resolver.ResolveShared(ctx, *series.TeacherID, *series.StudentID, date, &window, false)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, participantConflicts(shared.A, shared.B)...)
		if noSharedWindow(shared) {
			kinds = append(kinds, models.ConflictNoSharedWindow)
		}
	case series.TeacherID != nil:
		details, err := s.resolver.Resolve(ctx, *series.TeacherID, date, &window)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, singleConflict(details, true)...)
	case series.StudentID != nil:
		details, err := s.resolver.Resolve(ctx, *series.StudentID, date, &window)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, singleConflict(details, false)...)
	}
	return kinds, nil
}

func (s *GenerationService) recordRun(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordGenerationRun(outcome)
	}
}

// generationWindow computes the inclusive [from, to] date range due for
// processing. The watermark, when set, marks the last fully processed date.
func generationWindow(series *models.Series, today time.Time, leadDays int) (time.Time, time.Time) {
	from := models.DateOf(series.StartDate)
	if series.Watermark != nil {
		next := models.DateOf(*series.Watermark).AddDate(0, 0, 1)
		if next.After(from) {
			from = next
		}
	}
	if today.After(from) {
		from = today
	}

	to := from.AddDate(0, 0, leadDays)
	if series.EndDate != nil && to.After(models.DateOf(*series.EndDate)) {
		to = models.DateOf(*series.EndDate)
	}
	return from, to
}

// candidateDates enumerates the dates in [from, to] matching the weekly
// pattern.
func candidateDates(series *models.Series, from, to time.Time) []time.Time {
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if series.OnWeekday(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates
}

// exhausted reports whether the series can never produce another candidate.
func exhausted(series *models.Series, from time.Time) bool {
	return series.EndDate != nil && from.After(models.DateOf(*series.EndDate))
}

// hardConflicts checks the candidate window against prefetched same-day
// occurrences, reporting at most one conflict per ref type.
func hardConflicts(series *models.Series, window models.TimeSlot, sameDay []models.Occurrence) []models.ConflictKind {
	var booth, teacher, student bool
	for _, occ := range sameDay {
		if occ.Cancelled || !window.Overlaps(occ.Slot()) {
			continue
		}
		if series.BoothID != nil && occ.BoothID != nil && *occ.BoothID == *series.BoothID {
			booth = true
		}
		if series.TeacherID != nil && occ.TeacherID != nil && *occ.TeacherID == *series.TeacherID {
			teacher = true
		}
		if series.StudentID != nil && occ.StudentID != nil && *occ.StudentID == *series.StudentID {
			student = true
		}
	}

	var kinds []models.ConflictKind
	if booth {
		kinds = append(kinds, models.ConflictBoothBooked)
	}
	if teacher {
		kinds = append(kinds, models.ConflictTeacherBooked)
	}
	if student {
		kinds = append(kinds, models.ConflictStudentBooked)
	}
	return kinds
}

// participantConflicts maps per-side resolution failures onto teacher and
// student conflict kinds.
func participantConflicts(teacher, student models.AvailabilityDetails) []models.ConflictKind {
	var kinds []models.ConflictKind
	kinds = append(kinds, sideConflict(teacher, models.ConflictTeacherUnavail, models.ConflictTeacherWrongTime)...)
	kinds = append(kinds, sideConflict(student, models.ConflictStudentUnavail, models.ConflictStudentWrongTime)...)
	return kinds
}

func singleConflict(details *models.AvailabilityDetails, isTeacher bool) []models.ConflictKind {
	if isTeacher {
		return sideConflict(*details, models.ConflictTeacherUnavail, models.ConflictTeacherWrongTime)
	}
	return sideConflict(*details, models.ConflictStudentUnavail, models.ConflictStudentWrongTime)
}

func sideConflict(details models.AvailabilityDetails, unavailable, wrongTime models.ConflictKind) []models.ConflictKind {
	if details.Available || details.ConflictKind == nil {
		return nil
	}
	if *details.ConflictKind == models.ConflictKindUnavailable {
		return []models.ConflictKind{unavailable}
	}
	return []models.ConflictKind{wrongTime}
}

// noSharedWindow reports the informational no-shared-availability condition:
// at least one side individually covers the window, both have effective
// windows that day, yet the intersection does not cover it. When neither
// side covers the window the stronger per-side diagnostics already apply.
func noSharedWindow(shared *models.SharedAvailability) bool {
	if shared.Available {
		return false
	}
	if len(shared.A.EffectiveSlots) == 0 || len(shared.B.EffectiveSlots) == 0 {
		return false
	}
	return shared.A.Available || shared.B.Available
}

func buildOccurrence(series *models.Series, date time.Time, window models.TimeSlot, kinds []models.ConflictKind) (*models.Occurrence, error) {
	state := models.OccurrenceConfirmed
	for _, kind := range kinds {
		if series.Policy.Blocks(kind) {
			state = models.OccurrenceConflicted
			break
		}
	}

	occ := &models.Occurrence{
		SeriesID:  &series.ID,
		Date:      date,
		StartMin:  window.StartMin,
		EndMin:    window.EndMin,
		TeacherID: series.TeacherID,
		StudentID: series.StudentID,
		BoothID:   series.BoothID,
		State:     state,
	}
	if len(kinds) > 0 {
		payload, err := json.Marshal(kinds)
		if err != nil {
			return nil, fmt.Errorf("encode conflict kinds: %w", err)
		}
		occ.Conflicts = types.JSONText(payload)
	}
	return occ, nil
}
