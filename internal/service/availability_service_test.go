package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
)

type availabilityRepoStub struct {
	records []models.AvailabilityRecord
	created []*models.AvailabilityRecord
	err     error
}

func (s *availabilityRepoStub) FindApprovedByDate(_ context.Context, ownerID string, date time.Time, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.AvailabilityRecord
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.Kind == kind && r.Status == models.ApprovalApproved && r.Date != nil && r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *availabilityRepoStub) FindApprovedByWeekday(_ context.Context, ownerID string, weekday time.Weekday, kind models.AvailabilityKind) ([]models.AvailabilityRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.AvailabilityRecord
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.Kind == kind && r.Status == models.ApprovalApproved && r.Weekday != nil && *r.Weekday == int(weekday) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *availabilityRepoStub) FindByID(_ context.Context, id string) (*models.AvailabilityRecord, error) {
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *availabilityRepoStub) List(_ context.Context, _ models.AvailabilityFilter) ([]models.AvailabilityRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *availabilityRepoStub) Create(_ context.Context, record *models.AvailabilityRecord) error {
	s.created = append(s.created, record)
	return nil
}

func (s *availabilityRepoStub) UpdateStatus(_ context.Context, _ string, _ models.ApprovalStatus) error {
	return nil
}

func (s *availabilityRepoStub) Delete(_ context.Context, _ string) error { return nil }

type blackoutReaderStub struct {
	period *models.BlackoutPeriod
}

func (s *blackoutReaderStub) FindCovering(_ context.Context, date time.Time) (*models.BlackoutPeriod, error) {
	if s.period != nil && s.period.Covers(date) {
		return s.period, nil
	}
	return nil, nil
}

func weekdayRecord(owner string, day time.Weekday, startMin, endMin int) models.AvailabilityRecord {
	weekday := int(day)
	return models.AvailabilityRecord{
		OwnerID:  owner,
		Kind:     models.AvailabilityRegular,
		Status:   models.ApprovalApproved,
		Weekday:  &weekday,
		StartMin: startMin,
		EndMin:   endMin,
	}
}

func dateRecord(owner string, kind models.AvailabilityKind, date time.Time, startMin, endMin int) models.AvailabilityRecord {
	day := models.DateOf(date)
	return models.AvailabilityRecord{
		OwnerID:  owner,
		Kind:     kind,
		Status:   models.ApprovalApproved,
		Date:     &day,
		StartMin: startMin,
		EndMin:   endMin,
	}
}

// 2025-09-24 is a Wednesday.
var wednesday = time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC)

func TestResolveRegularBaseline(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
	}}
	svc := NewAvailabilityService(repo, nil, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, &window)
	require.NoError(t, err)

	assert.True(t, details.Available)
	assert.False(t, details.HasExceptions)
	assert.True(t, details.HasRegular)
	assert.Nil(t, details.ConflictKind)
	require.Len(t, details.EffectiveSlots, 1)
	assert.Equal(t, models.TimeSlot{StartMin: 540, EndMin: 720}, details.EffectiveSlots[0])
}

func TestResolveExceptionReplacesRegular(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		dateRecord("teacher-1", models.AvailabilityException, wednesday, 780, 900),
	}}
	svc := NewAvailabilityService(repo, nil, nil, nil)

	// The regular 09:00-12:00 window no longer applies on the exception date.
	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, &window)
	require.NoError(t, err)

	assert.False(t, details.Available)
	assert.True(t, details.HasExceptions)
	require.NotNil(t, details.ConflictKind)
	assert.Equal(t, models.ConflictKindWrongTime, *details.ConflictKind)
	require.Len(t, details.EffectiveSlots, 1)
	assert.Equal(t, models.TimeSlot{StartMin: 780, EndMin: 900}, details.EffectiveSlots[0])
}

func TestResolveAbsenceSubtracts(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		dateRecord("teacher-1", models.AvailabilityAbsence, wednesday, 600, 660),
	}}
	svc := NewAvailabilityService(repo, nil, nil, nil)

	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, nil)
	require.NoError(t, err)

	require.Len(t, details.EffectiveSlots, 2)
	assert.Equal(t, models.TimeSlot{StartMin: 540, EndMin: 600}, details.EffectiveSlots[0])
	assert.Equal(t, models.TimeSlot{StartMin: 660, EndMin: 720}, details.EffectiveSlots[1])
	assert.True(t, details.Available)
}

func TestResolveFullDayAbsenceUnavailable(t *testing.T) {
	absence := dateRecord("teacher-1", models.AvailabilityAbsence, wednesday, 0, 0)
	absence.FullDay = true
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		absence,
	}}
	svc := NewAvailabilityService(repo, nil, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, &window)
	require.NoError(t, err)

	assert.False(t, details.Available)
	assert.Empty(t, details.EffectiveSlots)
	require.NotNil(t, details.ConflictKind)
	assert.Equal(t, models.ConflictKindUnavailable, *details.ConflictKind)
}

func TestResolveNoRecords(t *testing.T) {
	svc := NewAvailabilityService(&availabilityRepoStub{}, nil, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, &window)
	require.NoError(t, err)

	assert.False(t, details.Available)
	require.NotNil(t, details.ConflictKind)
	assert.Equal(t, models.ConflictKindUnavailable, *details.ConflictKind)
}

func TestResolveSharedIntersection(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		weekdayRecord("student-1", time.Wednesday, 600, 840),
	}}
	svc := NewAvailabilityService(repo, &blackoutReaderStub{}, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	shared, err := svc.ResolveShared(context.Background(), "teacher-1", "student-1", wednesday, &window, false)
	require.NoError(t, err)

	assert.True(t, shared.Available)
	assert.Equal(t, models.StrategyRegular, shared.Strategy)
	require.Len(t, shared.SharedSlots, 1)
	assert.Equal(t, models.TimeSlot{StartMin: 600, EndMin: 720}, shared.SharedSlots[0])
}

func TestResolveSharedSymmetric(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		dateRecord("student-1", models.AvailabilityException, wednesday, 600, 840),
	}}
	svc := NewAvailabilityService(repo, &blackoutReaderStub{}, nil, nil)

	ab, err := svc.ResolveShared(context.Background(), "teacher-1", "student-1", wednesday, nil, false)
	require.NoError(t, err)
	ba, err := svc.ResolveShared(context.Background(), "student-1", "teacher-1", wednesday, nil, false)
	require.NoError(t, err)

	assert.Equal(t, ab.SharedSlots, ba.SharedSlots)
	assert.Equal(t, ab.Available, ba.Available)
	assert.Equal(t, ab.Strategy, ba.Strategy)
	assert.Equal(t, models.StrategyMixed, ab.Strategy)
}

func TestResolveSharedEmptyIntersectionIsStrategyNone(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		dateRecord("teacher-1", models.AvailabilityException, wednesday, 540, 600),
		dateRecord("student-1", models.AvailabilityException, wednesday, 660, 720),
	}}
	svc := NewAvailabilityService(repo, &blackoutReaderStub{}, nil, nil)

	shared, err := svc.ResolveShared(context.Background(), "teacher-1", "student-1", wednesday, nil, false)
	require.NoError(t, err)

	// Both sides hold exceptions but the empty intersection wins.
	assert.Empty(t, shared.SharedSlots)
	assert.Equal(t, models.StrategyNone, shared.Strategy)
	assert.False(t, shared.Available)
}

func TestResolveBlackoutOverridesRecords(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
	}}
	blackouts := &blackoutReaderStub{period: &models.BlackoutPeriod{
		Label:     "winter break",
		StartDate: wednesday.AddDate(0, 0, -1),
		EndDate:   wednesday.AddDate(0, 0, 1),
	}}
	svc := NewAvailabilityService(repo, blackouts, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	details, err := svc.Resolve(context.Background(), "teacher-1", wednesday, &window)
	require.NoError(t, err)

	assert.False(t, details.Available)
	assert.Empty(t, details.EffectiveSlots)
	require.NotNil(t, details.ConflictKind)
	assert.Equal(t, models.ConflictKindUnavailable, *details.ConflictKind)

	// Outside the blackout the weekday pattern applies again.
	nextWeek := wednesday.AddDate(0, 0, 7)
	details, err = svc.Resolve(context.Background(), "teacher-1", nextWeek, &window)
	require.NoError(t, err)
	assert.True(t, details.Available)
}

func TestResolveSharedBlackoutShortCircuits(t *testing.T) {
	repo := &availabilityRepoStub{records: []models.AvailabilityRecord{
		weekdayRecord("teacher-1", time.Wednesday, 540, 720),
		weekdayRecord("student-1", time.Wednesday, 540, 720),
	}}
	blackouts := &blackoutReaderStub{period: &models.BlackoutPeriod{
		Label:     "winter break",
		StartDate: wednesday.AddDate(0, 0, -1),
		EndDate:   wednesday.AddDate(0, 0, 1),
	}}
	svc := NewAvailabilityService(repo, blackouts, nil, nil)

	window := models.TimeSlot{StartMin: 600, EndMin: 650}
	shared, err := svc.ResolveShared(context.Background(), "teacher-1", "student-1", wednesday, &window, false)
	require.NoError(t, err)

	assert.False(t, shared.Available)
	assert.Empty(t, shared.SharedSlots)
	assert.Equal(t, models.StrategyNone, shared.Strategy)
	assert.Contains(t, shared.Message, "winter break")

	// Each side carries the unavailable diagnostic so callers mapping
	// per-participant conflicts see the blackout.
	require.NotNil(t, shared.A.ConflictKind)
	assert.Equal(t, models.ConflictKindUnavailable, *shared.A.ConflictKind)
	require.NotNil(t, shared.B.ConflictKind)
	assert.Equal(t, models.ConflictKindUnavailable, *shared.B.ConflictKind)
	assert.Empty(t, shared.A.EffectiveSlots)
	assert.Empty(t, shared.B.EffectiveSlots)

	// Skipping the check restores normal resolution.
	shared, err = svc.ResolveShared(context.Background(), "teacher-1", "student-1", wednesday, &window, true)
	require.NoError(t, err)
	assert.True(t, shared.Available)
}

func TestCreateAvailabilityKindScopes(t *testing.T) {
	repo := &availabilityRepoStub{}
	svc := NewAvailabilityService(repo, nil, nil, nil)

	day := "WEDNESDAY"
	_, err := svc.Create(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "teacher-1",
		Kind:      "REGULAR",
		Weekday:   &day,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.ApprovalPending, repo.created[0].Status)
	require.NotNil(t, repo.created[0].Weekday)
	assert.Equal(t, int(time.Wednesday), *repo.created[0].Weekday)

	// REGULAR with a date is rejected.
	date := "2025-09-24"
	_, err = svc.Create(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "teacher-1",
		Kind:      "REGULAR",
		Date:      &date,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	assert.Error(t, err)

	// EXCEPTION needs a date, not a weekday.
	_, err = svc.Create(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "teacher-1",
		Kind:      "EXCEPTION",
		Weekday:   &day,
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), dto.CreateAvailabilityRequest{
		OwnerID:   "teacher-1",
		Kind:      "EXCEPTION",
		Date:      &date,
		StartTime: "13:00",
		EndTime:   "15:00",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 2)
	require.NotNil(t, repo.created[1].Date)
	assert.Equal(t, wednesday, *repo.created[1].Date)
}
