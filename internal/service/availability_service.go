package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type availabilityRepository interface {
	FindApprovedByDate(ctx context.Context, ownerID string, date time.Time, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error)
	FindApprovedByWeekday(ctx context.Context, ownerID string, weekday time.Weekday, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityRecord, error)
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, int, error)
	Create(ctx context.Context, record *models.AvailabilityRecord) error
	UpdateStatus(ctx context.Context, id string, status models.ApprovalStatus) error
	Delete(ctx context.Context, id string) error
}

type blackoutReader interface {
	FindCovering(ctx context.Context, date time.Time) (*models.BlackoutPeriod, error)
}

// AvailabilityService resolves effective availability windows and manages the
// underlying records. Resolution reads APPROVED records only and is a pure
// function of stored state, safe to call concurrently.
type AvailabilityService struct {
	records   availabilityRepository
	blackouts blackoutReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService wires the resolver dependencies.
func NewAvailabilityService(records availabilityRepository, blackouts blackoutReader, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	registerSchedulingValidators(validate)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{records: records, blackouts: blackouts, validator: validate, logger: logger}
}

// Resolve computes one participant's effective windows for a date. A
// blackout covering the date yields zero availability regardless of stored
// records. Otherwise an APPROVED exception for the date fully replaces the
// weekday pattern and approved absences subtract from whichever baseline is
// active. When a window is requested, Available requires one effective slot
// to fully contain it.
func (s *AvailabilityService) Resolve(ctx context.Context, ownerID string, date time.Time, window *models.TimeSlot) (*models.AvailabilityDetails, error) {
	day := models.DateOf(date)

	period, err := s.coveringBlackout(ctx, day)
	if err != nil {
		return nil, err
	}
	if period != nil {
		details := blackoutDetails(ownerID, day, window)
		return &details, nil
	}
	return s.resolveOwner(ctx, ownerID, day, window)
}

func (s *AvailabilityService) resolveOwner(ctx context.Context, ownerID string, day time.Time, window *models.TimeSlot) (*models.AvailabilityDetails, error) {
	exceptions, err := s.records.FindApprovedByDate(ctx, ownerID, day, models.AvailabilityException)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exception records")
	}
	regulars, err := s.records.FindApprovedByWeekday(ctx, ownerID, day.Weekday(), models.AvailabilityRegular)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load regular records")
	}
	absences, err := s.records.FindApprovedByDate(ctx, ownerID, day, models.AvailabilityAbsence)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence records")
	}

	details := &models.AvailabilityDetails{
		OwnerID:        ownerID,
		Date:           day,
		HasExceptions:  len(exceptions) > 0,
		HasRegular:     len(regulars) > 0,
		ExceptionSlots: recordSlots(exceptions),
		RegularSlots:   recordSlots(regulars),
	}

	baseline := details.RegularSlots
	if details.HasExceptions {
		baseline = details.ExceptionSlots
	}
	details.EffectiveSlots = models.SubtractSlots(models.MergeSlots(baseline), recordSlots(absences))

	if window == nil {
		details.Available = len(details.EffectiveSlots) > 0
		return details, nil
	}

	details.Available = models.AnyContains(details.EffectiveSlots, *window)
	if !details.Available {
		kind := models.ConflictKindWrongTime
		if len(details.EffectiveSlots) == 0 {
			kind = models.ConflictKindUnavailable
		}
		details.ConflictKind = &kind
	}
	return details, nil
}

// ResolveShared intersects two participants' effective windows for a date.
// The result is symmetric in the two owners. Unless skipped, a blackout
// covering the date short-circuits to fully unavailable.
func (s *AvailabilityService) ResolveShared(ctx context.Context, ownerA, ownerB string, date time.Time, window *models.TimeSlot, skipBlackoutCheck bool) (*models.SharedAvailability, error) {
	day := models.DateOf(date)

	if !skipBlackoutCheck {
		period, err := s.coveringBlackout(ctx, day)
		if err != nil {
			return nil, err
		}
		if period != nil {
			return &models.SharedAvailability{
				A:        blackoutDetails(ownerA, day, window),
				B:        blackoutDetails(ownerB, day, window),
				Strategy: models.StrategyNone,
				Message:  fmt.Sprintf("date falls inside blackout period %q", period.Label),
			}, nil
		}
	}

	a, err := s.resolveOwner(ctx, ownerA, day, window)
	if err != nil {
		return nil, err
	}
	b, err := s.resolveOwner(ctx, ownerB, day, window)
	if err != nil {
		return nil, err
	}

	shared := &models.SharedAvailability{
		A:           *a,
		B:           *b,
		SharedSlots: models.IntersectSlots(a.EffectiveSlots, b.EffectiveSlots),
	}

	switch {
	case len(shared.SharedSlots) == 0:
		shared.Strategy = models.StrategyNone
	case a.HasExceptions && b.HasExceptions:
		shared.Strategy = models.StrategyException
	case !a.HasExceptions && !b.HasExceptions:
		shared.Strategy = models.StrategyRegular
	default:
		shared.Strategy = models.StrategyMixed
	}

	if window != nil {
		shared.Available = models.AnyContains(shared.SharedSlots, *window)
	} else {
		shared.Available = len(shared.SharedSlots) > 0
	}
	return shared, nil
}

// List returns availability records for the given filter.
func (s *AvailabilityService) List(ctx context.Context, req dto.AvailabilityListRequest) ([]models.AvailabilityRecord, *models.Pagination, error) {
	filter := models.AvailabilityFilter{
		OwnerID:  req.OwnerID,
		Kind:     models.AvailabilityKind(req.Kind),
		Status:   models.ApprovalStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
		filter.Date = &date
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability records")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create validates and stores a new availability record. REGULAR records
// must scope a weekday; EXCEPTION and ABSENCE records must scope a date.
func (s *AvailabilityService) Create(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilityRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	record := &models.AvailabilityRecord{
		OwnerID: req.OwnerID,
		Kind:    models.AvailabilityKind(req.Kind),
		Status:  models.ApprovalPending,
		FullDay: req.FullDay,
		Note:    req.Note,
	}

	switch record.Kind {
	case models.AvailabilityRegular:
		if req.Weekday == nil || req.Date != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "REGULAR records take a weekday, not a date")
		}
		day, ok := models.ParseWeekday(*req.Weekday)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday name")
		}
		weekday := int(day)
		record.Weekday = &weekday
	case models.AvailabilityException, models.AvailabilityAbsence:
		if req.Date == nil || req.Weekday != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "EXCEPTION and ABSENCE records take an exact date")
		}
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
		}
		date = models.DateOf(date)
		record.Date = &date
	}

	if !req.FullDay {
		startMin, err := models.ParseClock(req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted as HH:MM")
		}
		endMin, err := models.ParseClock(req.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be formatted as HH:MM")
		}
		if startMin >= endMin {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be before endTime")
		}
		record.StartMin = startMin
		record.EndMin = endMin
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability record")
	}
	return record, nil
}

// UpdateStatus transitions a record's approval status.
func (s *AvailabilityService) UpdateStatus(ctx context.Context, id string, req dto.UpdateAvailabilityStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if _, err := s.records.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability record")
	}
	if err := s.records.UpdateStatus(ctx, id, models.ApprovalStatus(req.Status)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability status")
	}
	return nil
}

// Delete removes an availability record.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability record")
	}
	return nil
}

func (s *AvailabilityService) coveringBlackout(ctx context.Context, day time.Time) (*models.BlackoutPeriod, error) {
	if s.blackouts == nil {
		return nil, nil
	}
	period, err := s.blackouts.FindCovering(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check blackout calendar")
	}
	return period, nil
}

// blackoutDetails renders the fully-unavailable resolution a blackout forces
// on every participant.
func blackoutDetails(ownerID string, day time.Time, window *models.TimeSlot) models.AvailabilityDetails {
	details := models.AvailabilityDetails{OwnerID: ownerID, Date: day}
	if window != nil {
		kind := models.ConflictKindUnavailable
		details.ConflictKind = &kind
	}
	return details
}

func recordSlots(records []models.AvailabilityRecord) []models.TimeSlot {
	slots := make([]models.TimeSlot, 0, len(records))
	for _, record := range records {
		slot := record.Slot()
		if slot.StartMin >= slot.EndMin {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}
