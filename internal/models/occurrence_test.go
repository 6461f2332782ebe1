package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceIdentityKey(t *testing.T) {
	seriesID := "series-1"
	occ := Occurrence{
		SeriesID: &seriesID,
		Date:     time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC),
		StartMin: 600,
		EndMin:   650,
	}
	assert.Equal(t, "series-1|2025-09-24|600|650", occ.IdentityKey())

	occ.SeriesID = nil
	assert.Equal(t, "|2025-09-24|600|650", occ.IdentityKey())
}

func TestOccurrenceStartsAtKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-11-02 is the fall-back transition in America/New_York.
	before := Occurrence{Date: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), StartMin: 600, EndMin: 650}
	after := Occurrence{Date: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), StartMin: 600, EndMin: 650}

	assert.Equal(t, "10:00", before.StartsAt(loc).Format("15:04"))
	assert.Equal(t, "10:00", after.StartsAt(loc).Format("15:04"))
	assert.Equal(t, "10:50", after.EndsAt(loc).Format("15:04"))

	_, offBefore := before.StartsAt(loc).Zone()
	_, offAfter := after.StartsAt(loc).Zone()
	assert.NotEqual(t, offBefore, offAfter)
}

func TestDateOfTruncatesToUTCMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	stamped := time.Date(2025, 9, 24, 18, 45, 12, 0, loc)
	date := DateOf(stamped)

	assert.Equal(t, time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "2025-09-24", DateKey(date))
}
