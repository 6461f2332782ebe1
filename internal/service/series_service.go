package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type seriesRepository interface {
	FindByID(ctx context.Context, id string) (*models.Series, error)
	List(ctx context.Context, filter models.SeriesFilter) ([]models.Series, int, error)
	Create(ctx context.Context, series *models.Series) error
	Update(ctx context.Context, series *models.Series) error
	Delete(ctx context.Context, id string) error
}

// SeriesService manages recurring-lesson series.
type SeriesService struct {
	repo      seriesRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSeriesService wires series dependencies and registers the scheduling
// validators on the shared validator instance.
func NewSeriesService(repo seriesRepository, validate *validator.Validate, logger *zap.Logger) *SeriesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerSchedulingValidators(validate)
	return &SeriesService{repo: repo, validator: validate, logger: logger}
}

func registerSchedulingValidators(v *validator.Validate) {
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseWeekday(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("conflictpolicy", func(fl validator.FieldLevel) bool {
		switch models.ConflictPolicy(fl.Field().String()) {
		case models.PolicyStrict, models.PolicyHardOnly, models.PolicyLenient:
			return true
		}
		return false
	})
}

// Get loads one series.
func (s *SeriesService) Get(ctx context.Context, id string) (*dto.SeriesResponse, error) {
	series, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	return seriesResponse(series), nil
}

// List returns series matching the filter.
func (s *SeriesService) List(ctx context.Context, req dto.SeriesListRequest) ([]dto.SeriesResponse, *models.Pagination, error) {
	filter := models.SeriesFilter{
		BranchID:  req.BranchID,
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		BoothID:   req.BoothID,
		Status:    models.SeriesStatus(req.Status),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list series")
	}

	responses := make([]dto.SeriesResponse, 0, len(list))
	for i := range list {
		responses = append(responses, *seriesResponse(&list[i]))
	}
	return responses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create validates and stores a new series. At least one of teacher, student
// or booth must be referenced, otherwise generation has nothing to guard.
func (s *SeriesService) Create(ctx context.Context, req dto.CreateSeriesRequest) (*dto.SeriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}
	if req.TeacherID == nil && req.StudentID == nil && req.BoothID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "series must reference a teacher, student or booth")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timezone must be a valid IANA zone name")
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}
	startMin, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted as HH:MM")
	}
	if startMin+req.DurationMin > models.MinutesPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "series window must not cross midnight")
	}
	weekdays, err := parseWeekdays(req.Weekdays)
	if err != nil {
		return nil, err
	}

	series := &models.Series{
		BranchID:    req.BranchID,
		TeacherID:   req.TeacherID,
		StudentID:   req.StudentID,
		BoothID:     req.BoothID,
		StartDate:   models.DateOf(startDate),
		StartMin:    startMin,
		DurationMin: req.DurationMin,
		WeekdayMask: models.MaskFromWeekdays(weekdays),
		Status:      models.SeriesActive,
		Timezone:    req.Timezone,
		Policy:      models.PolicyStrict,
	}
	if req.Policy != "" {
		series.Policy = models.ConflictPolicy(req.Policy)
	}
	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
		}
		endDate = models.DateOf(endDate)
		if endDate.Before(series.StartDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
		}
		series.EndDate = &endDate
	}

	if err := s.repo.Create(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create series")
	}
	s.logger.Info("series created", zap.String("series_id", series.ID), zap.String("branch_id", series.BranchID))
	return seriesResponse(series), nil
}

// Update applies the mutable attributes of a series. Identity fields and the
// watermark are never touched here.
func (s *SeriesService) Update(ctx context.Context, id string, req dto.UpdateSeriesRequest) (*dto.SeriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}

	series, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	if req.EndDate != nil {
		endDate, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
		}
		endDate = models.DateOf(endDate)
		if endDate.Before(models.DateOf(series.StartDate)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
		}
		series.EndDate = &endDate
	}
	if req.StartTime != nil {
		startMin, err := models.ParseClock(*req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must be formatted as HH:MM")
		}
		series.StartMin = startMin
	}
	if req.DurationMin != nil {
		series.DurationMin = *req.DurationMin
	}
	if series.StartMin+series.DurationMin > models.MinutesPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "series window must not cross midnight")
	}
	if len(req.Weekdays) > 0 {
		weekdays, err := parseWeekdays(req.Weekdays)
		if err != nil {
			return nil, err
		}
		series.WeekdayMask = models.MaskFromWeekdays(weekdays)
	}
	if req.Status != nil {
		series.Status = models.SeriesStatus(*req.Status)
	}
	if req.Policy != nil {
		series.Policy = models.ConflictPolicy(*req.Policy)
	}

	if err := s.repo.Update(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update series")
	}
	return seriesResponse(series), nil
}

// Delete removes a series. Already-generated occurrences stay behind.
func (s *SeriesService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete series")
	}
	return nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, ok := models.ParseWeekday(name)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday name")
		}
		days = append(days, day)
	}
	return days, nil
}

func seriesResponse(series *models.Series) *dto.SeriesResponse {
	window := series.Window()
	days := models.WeekdaysFromMask(series.WeekdayMask)
	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToUpper(day.String()))
	}
	return &dto.SeriesResponse{
		Series:    *series,
		Weekdays:  names,
		StartTime: models.FormatClock(window.StartMin),
		EndTime:   models.FormatClock(window.EndMin),
	}
}
