package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	appErrors "github.com/noah-isme/studio-booking-api/pkg/errors"
)

type seriesRepoStub struct {
	store   map[string]models.Series
	nextID  int
	updated []models.Series
	deleted []string
}

func newSeriesRepoStub() *seriesRepoStub {
	return &seriesRepoStub{store: map[string]models.Series{}}
}

func (s *seriesRepoStub) FindByID(_ context.Context, id string) (*models.Series, error) {
	series, ok := s.store[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := series
	return &copied, nil
}

func (s *seriesRepoStub) List(_ context.Context, filter models.SeriesFilter) ([]models.Series, int, error) {
	var list []models.Series
	for _, series := range s.store {
		if filter.BranchID != "" && series.BranchID != filter.BranchID {
			continue
		}
		if filter.Status != "" && series.Status != filter.Status {
			continue
		}
		list = append(list, series)
	}
	return list, len(list), nil
}

func (s *seriesRepoStub) Create(_ context.Context, series *models.Series) error {
	s.nextID++
	series.ID = fmt.Sprintf("series-%d", s.nextID)
	s.store[series.ID] = *series
	return nil
}

func (s *seriesRepoStub) Update(_ context.Context, series *models.Series) error {
	s.store[series.ID] = *series
	s.updated = append(s.updated, *series)
	return nil
}

func (s *seriesRepoStub) Delete(_ context.Context, id string) error {
	delete(s.store, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func validCreateSeriesRequest() dto.CreateSeriesRequest {
	return dto.CreateSeriesRequest{
		BranchID:    "branch-1",
		TeacherID:   idPtr("teacher-1"),
		StudentID:   idPtr("student-1"),
		BoothID:     idPtr("booth-1"),
		StartDate:   "2025-09-24",
		StartTime:   "10:00",
		DurationMin: 50,
		Weekdays:    []string{"WEDNESDAY", "FRIDAY"},
		Timezone:    "Asia/Tokyo",
	}
}

func TestSeriesServiceCreateDefaults(t *testing.T) {
	repo := newSeriesRepoStub()
	svc := NewSeriesService(repo, nil, nil)

	resp, err := svc.Create(context.Background(), validCreateSeriesRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, models.SeriesActive, resp.Status)
	assert.Equal(t, models.PolicyStrict, resp.Policy)
	assert.Equal(t, []string{"WEDNESDAY", "FRIDAY"}, resp.Weekdays)
	assert.Equal(t, "10:00", resp.StartTime)
	assert.Equal(t, "10:50", resp.EndTime)
	assert.Equal(t, models.MaskFromWeekdays([]time.Weekday{time.Wednesday, time.Friday}), resp.WeekdayMask)
}

func TestSeriesServiceCreateRequiresParticipant(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	req := validCreateSeriesRequest()
	req.TeacherID = nil
	req.StudentID = nil
	req.BoothID = nil

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSeriesServiceCreateRejectsMidnightCrossing(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	req := validCreateSeriesRequest()
	req.StartTime = "23:30"
	req.DurationMin = 45

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "midnight")
}

func TestSeriesServiceCreateRejectsUnknownTimezone(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	req := validCreateSeriesRequest()
	req.Timezone = "Mars/Olympus"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IANA")
}

func TestSeriesServiceCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	req := validCreateSeriesRequest()
	end := "2025-09-01"
	req.EndDate = &end

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endDate")
}

func TestSeriesServiceCreateRejectsUnknownWeekday(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	req := validCreateSeriesRequest()
	req.Weekdays = []string{"FUNDAY"}

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSeriesServiceUpdateMutableFields(t *testing.T) {
	repo := newSeriesRepoStub()
	svc := NewSeriesService(repo, nil, nil)

	created, err := svc.Create(context.Background(), validCreateSeriesRequest())
	require.NoError(t, err)

	status := "PAUSED"
	policy := "LENIENT"
	end := "2025-12-19"
	startTime := "11:00"
	resp, err := svc.Update(context.Background(), created.ID, dto.UpdateSeriesRequest{
		EndDate:   &end,
		StartTime: &startTime,
		Status:    &status,
		Policy:    &policy,
		Weekdays:  []string{"MONDAY"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SeriesPaused, resp.Status)
	assert.Equal(t, models.PolicyLenient, resp.Policy)
	assert.Equal(t, "11:00", resp.StartTime)
	assert.Equal(t, []string{"MONDAY"}, resp.Weekdays)
	require.NotNil(t, resp.EndDate)
	assert.Equal(t, "2025-12-19", resp.EndDate.Format("2006-01-02"))
	require.Len(t, repo.updated, 1)
}

func TestSeriesServiceUpdateRejectsMidnightCrossing(t *testing.T) {
	repo := newSeriesRepoStub()
	svc := NewSeriesService(repo, nil, nil)

	created, err := svc.Create(context.Background(), validCreateSeriesRequest())
	require.NoError(t, err)

	startTime := "23:45"
	_, err = svc.Update(context.Background(), created.ID, dto.UpdateSeriesRequest{StartTime: &startTime})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "midnight")
	assert.Empty(t, repo.updated)
}

func TestSeriesServiceGetNotFound(t *testing.T) {
	svc := NewSeriesService(newSeriesRepoStub(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSeriesServiceDelete(t *testing.T) {
	repo := newSeriesRepoStub()
	svc := NewSeriesService(repo, nil, nil)

	created, err := svc.Create(context.Background(), validCreateSeriesRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Equal(t, []string{created.ID}, repo.deleted)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
