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

func newBlackoutRepoMock(t *testing.T) (*BlackoutRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewBlackoutRepository(sqlx.NewDb(db, "sqlmock"))
	return repo, mock, func() { db.Close() } //nolint:errcheck
}

func TestBlackoutRepositoryFindCovering(t *testing.T) {
	repo, mock, cleanup := newBlackoutRepoMock(t)
	defer cleanup()

	date := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "label", "start_date", "end_date", "created_at"}).
		AddRow("blackout-1", "winter break", time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM blackout_periods WHERE start_date <= $1 AND end_date >= $1 ORDER BY start_date LIMIT 1`)).
		WithArgs(date).
		WillReturnRows(rows)

	period, err := repo.FindCovering(context.Background(), date)
	require.NoError(t, err)
	require.NotNil(t, period)
	assert.Equal(t, "winter break", period.Label)
	assert.True(t, period.Covers(date))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlackoutRepositoryFindCoveringOpenDate(t *testing.T) {
	repo, mock, cleanup := newBlackoutRepoMock(t)
	defer cleanup()

	date := time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM blackout_periods WHERE start_date <= $1 AND end_date >= $1`)).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "start_date", "end_date", "created_at"}))

	period, err := repo.FindCovering(context.Background(), date)
	require.NoError(t, err)
	assert.Nil(t, period)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlackoutRepositoryCreateAssignsID(t *testing.T) {
	repo, mock, cleanup := newBlackoutRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO blackout_periods`).WillReturnResult(sqlmock.NewResult(0, 1))

	period := &models.BlackoutPeriod{
		Label:     "studio renovation",
		StartDate: time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.NotEmpty(t, period.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
