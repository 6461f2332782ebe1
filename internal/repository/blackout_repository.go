package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studio-booking-api/internal/models"
)

// BlackoutRepository provides persistence for blackout periods.
type BlackoutRepository struct {
	db *sqlx.DB
}

// NewBlackoutRepository creates a new blackout repository.
func NewBlackoutRepository(db *sqlx.DB) *BlackoutRepository {
	return &BlackoutRepository{db: db}
}

// FindCovering returns the blackout period containing the date, or nil when
// the date is open.
func (r *BlackoutRepository) FindCovering(ctx context.Context, date time.Time) (*models.BlackoutPeriod, error) {
	const query = `SELECT id, label, start_date, end_date, created_at FROM blackout_periods WHERE start_date <= $1 AND end_date >= $1 ORDER BY start_date LIMIT 1`
	var period models.BlackoutPeriod
	if err := r.db.GetContext(ctx, &period, query, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find covering blackout: %w", err)
	}
	return &period, nil
}

// List returns all blackout periods ordered by start date.
func (r *BlackoutRepository) List(ctx context.Context) ([]models.BlackoutPeriod, error) {
	var periods []models.BlackoutPeriod
	if err := r.db.SelectContext(ctx, &periods, `SELECT id, label, start_date, end_date, created_at FROM blackout_periods ORDER BY start_date`); err != nil {
		return nil, fmt.Errorf("list blackout periods: %w", err)
	}
	return periods, nil
}

// Create stores a new blackout period.
func (r *BlackoutRepository) Create(ctx context.Context, period *models.BlackoutPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if period.CreatedAt.IsZero() {
		period.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO blackout_periods (id, label, start_date, end_date, created_at) VALUES (:id, :label, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create blackout period: %w", err)
	}
	return nil
}

// Delete removes a blackout period by id.
func (r *BlackoutRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blackout_periods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete blackout period: %w", err)
	}
	return nil
}
