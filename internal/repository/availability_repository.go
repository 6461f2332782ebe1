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

const availabilityColumns = `id, owner_id, kind, status, date, weekday, full_day, start_min, end_min, note, created_at, updated_at`

// AvailabilityRepository provides persistence for availability records.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindApprovedByDate returns APPROVED records of the given kind scoped to an
// exact date.
func (r *AvailabilityRepository) FindApprovedByDate(ctx context.Context, ownerID string, date time.Time, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_records WHERE owner_id = $1 AND date = $2 AND kind = $3 AND status = $4 ORDER BY start_min", availabilityColumns)
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, ownerID, date, kind, models.ApprovalApproved); err != nil {
		return nil, fmt.Errorf("find approved availability by date: %w", err)
	}
	return records, nil
}

// FindApprovedByWeekday returns APPROVED records of the given kind scoped to
// a weekday pattern.
func (r *AvailabilityRepository) FindApprovedByWeekday(ctx context.Context, ownerID string, weekday time.Weekday, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_records WHERE owner_id = $1 AND weekday = $2 AND kind = $3 AND status = $4 ORDER BY start_min", availabilityColumns)
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, ownerID, int(weekday), kind, models.ApprovalApproved); err != nil {
		return nil, fmt.Errorf("find approved availability by weekday: %w", err)
	}
	return records, nil
}

// FindByID loads a record by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_records WHERE id = $1", availabilityColumns)
	var record models.AvailabilityRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records with optional filtering and pagination.
func (r *AvailabilityRepository) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityRecord, int, error) {
	base := "FROM availability_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, *filter.Date)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", availabilityColumns, base, size, offset)
	var records []models.AvailabilityRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list availability records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count availability records: %w", err)
	}

	return records, total, nil
}

// Create stores a new availability record.
func (r *AvailabilityRepository) Create(ctx context.Context, record *models.AvailabilityRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO availability_records (id, owner_id, kind, status, date, weekday, full_day, start_min, end_min, note, created_at, updated_at) VALUES (:id, :owner_id, :kind, :status, :date, :weekday, :full_day, :start_min, :end_min, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create availability record: %w", err)
	}
	return nil
}

// UpdateStatus transitions a record's approval status.
func (r *AvailabilityRepository) UpdateStatus(ctx context.Context, id string, status models.ApprovalStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE availability_records SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update availability status: %w", err)
	}
	return nil
}

// Delete removes a record by id.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability record: %w", err)
	}
	return nil
}
