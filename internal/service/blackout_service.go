package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type blackoutRepository interface {
	List(ctx context.Context) ([]models.BlackoutPeriod, error)
	Create(ctx context.Context, period *models.BlackoutPeriod) error
	Delete(ctx context.Context, id string) error
}

// BlackoutService manages calendar-wide closed periods.
type BlackoutService struct {
	repo      blackoutRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlackoutService wires blackout dependencies.
func NewBlackoutService(repo blackoutRepository, validate *validator.Validate, logger *zap.Logger) *BlackoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlackoutService{repo: repo, validator: validate, logger: logger}
}

// List returns all blackout periods.
func (s *BlackoutService) List(ctx context.Context) ([]models.BlackoutPeriod, error) {
	periods, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blackout periods")
	}
	return periods, nil
}

// Create validates and stores a new blackout period.
func (s *BlackoutService) Create(ctx context.Context, req dto.CreateBlackoutRequest) (*models.BlackoutPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blackout payload")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	period := &models.BlackoutPeriod{
		Label:     req.Label,
		StartDate: models.DateOf(start),
		EndDate:   models.DateOf(end),
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blackout period")
	}
	s.logger.Info("blackout period created", zap.String("blackout_id", period.ID), zap.String("label", period.Label))
	return period, nil
}

// Delete removes a blackout period.
func (s *BlackoutService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blackout period")
	}
	return nil
}
