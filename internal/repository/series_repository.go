package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studio-booking-api/internal/models"
)

const seriesColumns = `id, branch_id, teacher_id, student_id, booth_id, start_date, end_date, start_min, duration_min, weekday_mask, status, timezone, watermark, policy, created_at, updated_at`

// SeriesRepository provides persistence for recurring-lesson series.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository creates a new series repository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// FindByID loads a series by id.
func (r *SeriesRepository) FindByID(ctx context.Context, id string) (*models.Series, error) {
	query := fmt.Sprintf(`SELECT %s FROM series WHERE id = $1`, seriesColumns)
	var series models.Series
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// List returns series with optional filtering and pagination.
func (r *SeriesRepository) List(ctx context.Context, filter models.SeriesFilter) ([]models.Series, int, error) {
	base := "FROM series WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.BoothID != "" {
		conditions = append(conditions, fmt.Sprintf("booth_id = $%d", len(args)+1))
		args = append(args, filter.BoothID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", seriesColumns, base, size, offset)
	var list []models.Series
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list series: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count series: %w", err)
	}

	return list, total, nil
}

// ListActiveIDs returns the ids of all series eligible for generation sweeps.
func (r *SeriesRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM series WHERE status = $1 ORDER BY created_at`, models.SeriesActive); err != nil {
		return nil, fmt.Errorf("list active series ids: %w", err)
	}
	return ids, nil
}

// Create stores a new series.
func (r *SeriesRepository) Create(ctx context.Context, series *models.Series) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	const query = `INSERT INTO series (id, branch_id, teacher_id, student_id, booth_id, start_date, end_date, start_min, duration_min, weekday_mask, status, timezone, watermark, policy, created_at, updated_at) VALUES (:id, :branch_id, :teacher_id, :student_id, :booth_id, :start_date, :end_date, :start_min, :duration_min, :weekday_mask, :status, :timezone, :watermark, :policy, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}

// Update modifies the mutable attributes of a series.
func (r *SeriesRepository) Update(ctx context.Context, series *models.Series) error {
	series.UpdatedAt = time.Now().UTC()
	const query = `UPDATE series SET end_date = :end_date, start_min = :start_min, duration_min = :duration_min, weekday_mask = :weekday_mask, status = :status, policy = :policy, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}

// UpdateWatermark advances the generation watermark. The watermark is a
// single-writer field guarded by the generation lock.
func (r *SeriesRepository) UpdateWatermark(ctx context.Context, id string, watermark time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE series SET watermark = $2, updated_at = $3 WHERE id = $1`, id, watermark, time.Now().UTC()); err != nil {
		return fmt.Errorf("update series watermark: %w", err)
	}
	return nil
}

// Delete removes a series. Occurrences are never cascaded.
func (r *SeriesRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM series WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return nil
}
