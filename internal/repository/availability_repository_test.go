package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-booking-api/internal/models"
)

func newAvailabilityRepoMock(t *testing.T) (*AvailabilityRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewAvailabilityRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() } //nolint:errcheck
}

func availabilityRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "kind", "status", "date", "weekday",
		"full_day", "start_min", "end_min", "note", "created_at", "updated_at",
	}).AddRow(
		"rec-1", "teacher-1", "REGULAR", "APPROVED", nil, 3,
		false, 540, 720, nil, now, now,
	)
}

func TestAvailabilityRepositoryFindApprovedByWeekday(t *testing.T) {
	repo, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM availability_records WHERE owner_id = $1 AND weekday = $2 AND kind = $3 AND status = $4 ORDER BY start_min`)).
		WithArgs("teacher-1", int(time.Wednesday), models.AvailabilityRegular, models.ApprovalApproved).
		WillReturnRows(availabilityRows())

	records, err := repo.FindApprovedByWeekday(context.Background(), "teacher-1", time.Wednesday, models.AvailabilityRegular)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 540, records[0].StartMin)
	require.NotNil(t, records[0].Weekday)
	assert.Equal(t, int(time.Wednesday), *records[0].Weekday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryFindApprovedByDate(t *testing.T) {
	repo, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	date := time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM availability_records WHERE owner_id = $1 AND date = $2 AND kind = $3 AND status = $4 ORDER BY start_min`)).
		WithArgs("teacher-1", date, models.AvailabilityException, models.ApprovalApproved).
		WillReturnRows(availabilityRows())

	records, err := repo.FindApprovedByDate(context.Background(), "teacher-1", date, models.AvailabilityException)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListAppliesFilters(t *testing.T) {
	repo, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM availability_records WHERE 1=1 AND owner_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0`)).
		WithArgs("teacher-1", models.ApprovalPending).
		WillReturnRows(availabilityRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM availability_records WHERE 1=1 AND owner_id = $1 AND status = $2`)).
		WithArgs("teacher-1", models.ApprovalPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AvailabilityFilter{OwnerID: "teacher-1", Status: models.ApprovalPending})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryUpdateStatus(t *testing.T) {
	repo, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE availability_records SET status = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("rec-1", models.ApprovalApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "rec-1", models.ApprovalApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateAssignsID(t *testing.T) {
	repo, mock, cleanup := newAvailabilityRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO availability_records`).WillReturnResult(sqlmock.NewResult(0, 1))

	weekday := int(time.Wednesday)
	record := &models.AvailabilityRecord{
		OwnerID:  "teacher-1",
		Kind:     models.AvailabilityRegular,
		Status:   models.ApprovalPending,
		Weekday:  &weekday,
		StartMin: 540,
		EndMin:   720,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
