package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/studio-booking-api/internal/models"
)

const occurrenceColumns = `id, series_id, date, start_min, end_min, teacher_id, student_id, booth_id, state, cancelled, conflicts, created_at, updated_at`

// OccurrenceRepository provides persistence for concrete lesson occurrences.
type OccurrenceRepository struct {
	db *sqlx.DB
}

// NewOccurrenceRepository creates a new occurrence repository.
func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

// FindByID loads an occurrence by id.
func (r *OccurrenceRepository) FindByID(ctx context.Context, id string) (*models.Occurrence, error) {
	query := fmt.Sprintf(`SELECT %s FROM occurrences WHERE id = $1`, occurrenceColumns)
	var occ models.Occurrence
	if err := r.db.GetContext(ctx, &occ, query, id); err != nil {
		return nil, err
	}
	return &occ, nil
}

// FindByDatesAndParticipants bulk-loads the non-cancelled occurrences on any
// of the given dates that involve any of the given participant or booth refs.
func (r *OccurrenceRepository) FindByDatesAndParticipants(ctx context.Context, dates []time.Time, refs models.ParticipantRefs) ([]models.Occurrence, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	var refConditions []string
	args := []interface{}{pq.Array(dates)}
	if refs.BoothID != nil {
		args = append(args, *refs.BoothID)
		refConditions = append(refConditions, fmt.Sprintf("booth_id = $%d", len(args)))
	}
	if refs.TeacherID != nil {
		args = append(args, *refs.TeacherID)
		refConditions = append(refConditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if refs.StudentID != nil {
		args = append(args, *refs.StudentID)
		refConditions = append(refConditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if len(refConditions) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM occurrences WHERE date = ANY($1) AND cancelled = FALSE AND (%s) ORDER BY date, start_min", occurrenceColumns, strings.Join(refConditions, " OR "))
	var list []models.Occurrence
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("find occurrences by dates and participants: %w", err)
	}
	return list, nil
}

// ExistsByIdentityKey reports whether an occurrence with the generation
// identity (series, date, start, end) already exists, cancelled or not.
func (r *OccurrenceRepository) ExistsByIdentityKey(ctx context.Context, seriesID string, date time.Time, startMin, endMin int) (bool, error) {
	const query = `SELECT 1 FROM occurrences WHERE series_id = $1 AND date = $2 AND start_min = $3 AND end_min = $4 LIMIT 1`
	var one int
	err := r.db.GetContext(ctx, &one, query, seriesID, date, startMin, endMin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check occurrence identity: %w", err)
	}
	return true, nil
}

// Create stores a new occurrence.
func (r *OccurrenceRepository) Create(ctx context.Context, occ *models.Occurrence) error {
	if occ.ID == "" {
		occ.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if occ.CreatedAt.IsZero() {
		occ.CreatedAt = now
	}
	occ.UpdatedAt = now

	const query = `INSERT INTO occurrences (id, series_id, date, start_min, end_min, teacher_id, student_id, booth_id, state, cancelled, conflicts, created_at, updated_at) VALUES (:id, :series_id, :date, :start_min, :end_min, :teacher_id, :student_id, :booth_id, :state, :cancelled, :conflicts, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, occ); err != nil {
		return fmt.Errorf("create occurrence: %w", err)
	}
	return nil
}

// List returns occurrences with optional filtering and pagination.
func (r *OccurrenceRepository) List(ctx context.Context, filter models.OccurrenceFilter) ([]models.Occurrence, int, error) {
	base := "FROM occurrences WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SeriesID != "" {
		conditions = append(conditions, fmt.Sprintf("series_id = $%d", len(args)+1))
		args = append(args, filter.SeriesID)
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
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date, start_min LIMIT %d OFFSET %d", occurrenceColumns, base, size, offset)
	var list []models.Occurrence
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list occurrences: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count occurrences: %w", err)
	}

	return list, total, nil
}

// ListBySeries returns every occurrence generated from a series.
func (r *OccurrenceRepository) ListBySeries(ctx context.Context, seriesID string) ([]models.Occurrence, error) {
	query := fmt.Sprintf("SELECT %s FROM occurrences WHERE series_id = $1 ORDER BY date, start_min", occurrenceColumns)
	var list []models.Occurrence
	if err := r.db.SelectContext(ctx, &list, query, seriesID); err != nil {
		return nil, fmt.Errorf("list occurrences by series: %w", err)
	}
	return list, nil
}

// Cancel flags an occurrence as cancelled without deleting it.
func (r *OccurrenceRepository) Cancel(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE occurrences SET cancelled = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("cancel occurrence: %w", err)
	}
	return nil
}
