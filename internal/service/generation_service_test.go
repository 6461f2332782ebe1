package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-booking-api/internal/dto"
	"github.com/noah-isme/studio-booking-api/internal/models"
	"github.com/noah-isme/studio-booking-api/pkg/lock"
)

type genSeriesStoreStub struct {
	series     *models.Series
	watermarks []time.Time
	deleted    []string
}

func (s *genSeriesStoreStub) FindByID(_ context.Context, id string) (*models.Series, error) {
	if s.series == nil || s.series.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.series
	return &copied, nil
}

func (s *genSeriesStoreStub) UpdateWatermark(_ context.Context, _ string, watermark time.Time) error {
	s.watermarks = append(s.watermarks, watermark)
	wm := watermark
	s.series.Watermark = &wm
	return nil
}

func (s *genSeriesStoreStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type genOccStoreStub struct {
	sameDay       []models.Occurrence
	created       []models.Occurrence
	identity      map[string]bool
	failCreateAt  int
	prefetchCalls int
}

func newGenOccStoreStub() *genOccStoreStub {
	return &genOccStoreStub{identity: make(map[string]bool), failCreateAt: -1}
}

func (s *genOccStoreStub) FindByDatesAndParticipants(_ context.Context, _ []time.Time, _ models.ParticipantRefs) ([]models.Occurrence, error) {
	s.prefetchCalls++
	return s.sameDay, nil
}

func (s *genOccStoreStub) ExistsByIdentityKey(_ context.Context, seriesID string, date time.Time, startMin, endMin int) (bool, error) {
	key := models.Occurrence{SeriesID: &seriesID, Date: date, StartMin: startMin, EndMin: endMin}.IdentityKey()
	return s.identity[key], nil
}

func (s *genOccStoreStub) Create(_ context.Context, occ *models.Occurrence) error {
	if s.failCreateAt >= 0 && len(s.created) == s.failCreateAt {
		return errors.New("insert failed")
	}
	s.created = append(s.created, *occ)
	s.identity[occ.IdentityKey()] = true
	return nil
}

type resolverStub struct {
	resolve       func(ownerID string, date time.Time) *models.AvailabilityDetails
	resolveShared func(ownerA, ownerB string, date time.Time) *models.SharedAvailability
}

func (s *resolverStub) Resolve(_ context.Context, ownerID string, date time.Time, _ *models.TimeSlot) (*models.AvailabilityDetails, error) {
	if s.resolve != nil {
		return s.resolve(ownerID, date), nil
	}
	return &models.AvailabilityDetails{OwnerID: ownerID, Available: true}, nil
}

func (s *resolverStub) ResolveShared(_ context.Context, ownerA, ownerB string, date time.Time, _ *models.TimeSlot, _ bool) (*models.SharedAvailability, error) {
	if s.resolveShared != nil {
		return s.resolveShared(ownerA, ownerB, date), nil
	}
	return &models.SharedAvailability{
		A:         models.AvailabilityDetails{OwnerID: ownerA, Available: true},
		B:         models.AvailabilityDetails{OwnerID: ownerB, Available: true},
		Available: true,
	}, nil
}

func idPtr(s string) *string { return &s }

// Monday before the first candidate Wednesday.
var genNow = time.Date(2025, 9, 22, 12, 0, 0, 0, time.UTC)

func wedFriSeries() *models.Series {
	return &models.Series{
		ID:          "series-1",
		BranchID:    "branch-1",
		TeacherID:   idPtr("teacher-1"),
		StudentID:   idPtr("student-1"),
		StartDate:   time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC),
		StartMin:    600,
		DurationMin: 50,
		WeekdayMask: models.MaskFromWeekdays([]time.Weekday{time.Wednesday, time.Friday}),
		Status:      models.SeriesActive,
		Timezone:    "UTC",
		Policy:      models.PolicyStrict,
	}
}

func newTestGenerator(seriesStore *genSeriesStoreStub, occStore *genOccStoreStub, resolver *resolverStub, locker lock.Locker) *GenerationService {
	svc := NewGenerationService(seriesStore, occStore, resolver, locker, nil, nil, nil, GenerationConfig{DefaultLeadDays: 7})
	svc.now = func() time.Time { return genNow }
	return svc
}

func TestGenerateCreatesConfirmedOccurrences(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	// Wed 9/24, Fri 9/26 and Wed 10/1 fall inside the seven-day lead window.
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.CreatedConfirmed)
	assert.Equal(t, 0, result.CreatedConflicted)
	assert.Equal(t, 0, result.Skipped)

	require.Len(t, occStore.created, 3)
	first := occStore.created[0]
	assert.Equal(t, "series-1", *first.SeriesID)
	assert.Equal(t, time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 600, first.StartMin)
	assert.Equal(t, 650, first.EndMin)
	assert.Equal(t, models.OccurrenceConfirmed, first.State)
	assert.Empty(t, first.Conflicts)

	require.Len(t, seriesStore.watermarks, 1)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), seriesStore.watermarks[0])
	assert.Empty(t, seriesStore.deleted)
}

func TestGenerateSkipsExistingIdentities(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	// A prior partial run already materialized the first Wednesday.
	existing := models.Occurrence{SeriesID: idPtr("series-1"), Date: time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC), StartMin: 600, EndMin: 650}
	occStore.identity[existing.IdentityKey()] = true
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.CreatedConfirmed)
	assert.Len(t, occStore.created, 2)
}

func TestGenerateAdvancesFromWatermarkOnRerun(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	_, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	// The second pass starts the day after the watermark: Fri 10/3, Wed 10/8.
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.CreatedConfirmed)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, seriesStore.watermarks, 2)
	assert.Equal(t, time.Date(2025, 10, 9, 0, 0, 0, 0, time.UTC), seriesStore.watermarks[1])
}

func TestGenerateLockContentionReturnsZeroResult(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	locker := lock.NewMemoryLocker()
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, locker)

	held, err := locker.TryAcquire(context.Background(), "series:generate:series-1")
	require.NoError(t, err)
	require.True(t, held)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, dto.GenerationResult{}, *result)
	assert.Empty(t, occStore.created)
	assert.Empty(t, seriesStore.watermarks)

	// After release the run proceeds normally.
	require.NoError(t, locker.Release(context.Background(), "series:generate:series-1"))
	result, err = svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.CreatedConfirmed)
}

func TestGenerateRetryAfterPartialFailure(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	occStore.failCreateAt = 1
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	_, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.Error(t, err)

	// The watermark must not move past dates that failed to materialize.
	assert.Empty(t, seriesStore.watermarks)
	assert.Len(t, occStore.created, 1)

	occStore.failCreateAt = -1
	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.CreatedConfirmed)
	assert.Len(t, occStore.created, 3)
	require.Len(t, seriesStore.watermarks, 1)
}

func TestGenerateDeletesExhaustedSeries(t *testing.T) {
	series := wedFriSeries()
	endDate := time.Date(2025, 9, 26, 0, 0, 0, 0, time.UTC)
	watermark := endDate
	series.EndDate = &endDate
	series.Watermark = &watermark
	seriesStore := &genSeriesStoreStub{series: series}
	occStore := newGenOccStoreStub()
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Attempted)
	assert.Empty(t, occStore.created)
	assert.Empty(t, seriesStore.watermarks)
	assert.Equal(t, []string{"series-1"}, seriesStore.deleted)
}

func TestGenerateHardConflictFromExistingBooking(t *testing.T) {
	series := wedFriSeries()
	series.TeacherID = nil
	series.StudentID = nil
	series.BoothID = idPtr("booth-1")
	series.Policy = models.PolicyHardOnly
	seriesStore := &genSeriesStoreStub{series: series}

	occStore := newGenOccStoreStub()
	occStore.sameDay = []models.Occurrence{
		{Date: time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC), StartMin: 620, EndMin: 680, BoothID: idPtr("booth-1")},
		{Date: time.Date(2025, 9, 26, 0, 0, 0, 0, time.UTC), StartMin: 620, EndMin: 680, BoothID: idPtr("booth-1"), Cancelled: true},
	}
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedConflicted)
	assert.Equal(t, 2, result.CreatedConfirmed)

	require.Len(t, occStore.created, 3)
	conflicted := occStore.created[0]
	assert.Equal(t, models.OccurrenceConflicted, conflicted.State)
	assert.Contains(t, string(conflicted.Conflicts), string(models.ConflictBoothBooked))

	// The cancelled booking on Friday does not count.
	assert.Equal(t, models.OccurrenceConfirmed, occStore.created[1].State)
}

func TestGeneratePolicyDecidesStateNotCreation(t *testing.T) {
	wrongTime := models.ConflictKindWrongTime
	resolver := &resolverStub{
		resolve: func(ownerID string, _ time.Time) *models.AvailabilityDetails {
			return &models.AvailabilityDetails{
				OwnerID:        ownerID,
				Available:      false,
				ConflictKind:   &wrongTime,
				EffectiveSlots: []models.TimeSlot{{StartMin: 780, EndMin: 900}},
			}
		},
	}

	for _, tc := range []struct {
		policy models.ConflictPolicy
		state  models.OccurrenceState
	}{
		{models.PolicyStrict, models.OccurrenceConflicted},
		{models.PolicyLenient, models.OccurrenceConfirmed},
	} {
		series := wedFriSeries()
		series.StudentID = nil
		series.Policy = tc.policy
		seriesStore := &genSeriesStoreStub{series: series}
		occStore := newGenOccStoreStub()
		svc := newTestGenerator(seriesStore, occStore, resolver, nil)

		result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Created(), "policy %s", tc.policy)
		require.NotEmpty(t, occStore.created)
		occ := occStore.created[0]
		assert.Equal(t, tc.state, occ.State, "policy %s", tc.policy)
		// The diagnostic payload is recorded under every policy.
		assert.Contains(t, string(occ.Conflicts), string(models.ConflictTeacherWrongTime))
	}
}

func TestGenerateNoSharedWindowIsInformational(t *testing.T) {
	wrongTime := models.ConflictKindWrongTime
	resolver := &resolverStub{
		resolveShared: func(ownerA, ownerB string, _ time.Time) *models.SharedAvailability {
			return &models.SharedAvailability{
				A: models.AvailabilityDetails{
					OwnerID:        ownerA,
					Available:      true,
					EffectiveSlots: []models.TimeSlot{{StartMin: 540, EndMin: 720}},
				},
				B: models.AvailabilityDetails{
					OwnerID:        ownerB,
					Available:      false,
					ConflictKind:   &wrongTime,
					EffectiveSlots: []models.TimeSlot{{StartMin: 780, EndMin: 900}},
				},
				Available: false,
				Strategy:  models.StrategyMixed,
			}
		},
	}

	series := wedFriSeries()
	series.Policy = models.PolicyHardOnly
	seriesStore := &genSeriesStoreStub{series: series}
	occStore := newGenOccStoreStub()
	svc := newTestGenerator(seriesStore, occStore, resolver, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	// Soft conflicts never block under HARD_ONLY; the diagnostics still land.
	assert.Equal(t, 3, result.CreatedConfirmed)
	require.NotEmpty(t, occStore.created)
	payload := string(occStore.created[0].Conflicts)
	assert.Contains(t, payload, string(models.ConflictStudentWrongTime))
	assert.Contains(t, payload, string(models.ConflictNoSharedWindow))
}

func blackoutResolver(owners ...string) *AvailabilityService {
	var records []models.AvailabilityRecord
	for _, owner := range owners {
		records = append(records,
			weekdayRecord(owner, time.Wednesday, 540, 720),
			weekdayRecord(owner, time.Friday, 540, 720),
		)
	}
	blackouts := &blackoutReaderStub{period: &models.BlackoutPeriod{
		Label:     "facility closure",
		StartDate: time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC),
	}}
	return NewAvailabilityService(&availabilityRepoStub{records: records}, blackouts, nil, nil)
}

func TestGenerateBlackoutDatesAreConflicted(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	svc := NewGenerationService(seriesStore, occStore, blackoutResolver("teacher-1", "student-1"), nil, nil, nil, nil, GenerationConfig{DefaultLeadDays: 7})
	svc.now = func() time.Time { return genNow }

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	// Every candidate falls inside the closure; under STRICT none confirm.
	assert.Equal(t, 3, result.CreatedConflicted)
	assert.Equal(t, 0, result.CreatedConfirmed)
	require.Len(t, occStore.created, 3)
	for _, occ := range occStore.created {
		assert.Equal(t, models.OccurrenceConflicted, occ.State)
		payload := string(occ.Conflicts)
		assert.Contains(t, payload, string(models.ConflictTeacherUnavail))
		assert.Contains(t, payload, string(models.ConflictStudentUnavail))
		assert.NotContains(t, payload, string(models.ConflictNoSharedWindow))
	}
}

func TestGenerateBlackoutAppliesToSingleParticipant(t *testing.T) {
	series := wedFriSeries()
	series.StudentID = nil
	seriesStore := &genSeriesStoreStub{series: series}
	occStore := newGenOccStoreStub()
	svc := NewGenerationService(seriesStore, occStore, blackoutResolver("teacher-1"), nil, nil, nil, nil, GenerationConfig{DefaultLeadDays: 7})
	svc.now = func() time.Time { return genNow }

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.CreatedConflicted)
	require.NotEmpty(t, occStore.created)
	assert.Contains(t, string(occStore.created[0].Conflicts), string(models.ConflictTeacherUnavail))
}

func TestGenerateLeadWindowOverride(t *testing.T) {
	seriesStore := &genSeriesStoreStub{series: wedFriSeries()}
	occStore := newGenOccStoreStub()
	svc := newTestGenerator(seriesStore, occStore, &resolverStub{}, nil)

	result, err := svc.Generate(context.Background(), "series-1", dto.GenerateRequest{LeadWindowDays: 2})
	require.NoError(t, err)

	// Only Wed 9/24 and Fri 9/26 fall inside the two-day window.
	assert.Equal(t, 2, result.Attempted)
	require.Len(t, seriesStore.watermarks, 1)
	assert.Equal(t, time.Date(2025, 9, 26, 0, 0, 0, 0, time.UTC), seriesStore.watermarks[0])
}
