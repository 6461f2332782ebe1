package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// OccurrenceState marks whether a generated occurrence carried a blocking
// conflict at creation time.
type OccurrenceState string

const (
	OccurrenceConfirmed  OccurrenceState = "CONFIRMED"
	OccurrenceConflicted OccurrenceState = "CONFLICTED"
)

// Occurrence is one concrete, dated lesson. Occurrences outlive their series;
// SeriesID is nil for standalone bookings. The tuple (series, date, start,
// end) is the idempotency identity for generation.
type Occurrence struct {
	ID        string          `db:"id" json:"id"`
	SeriesID  *string         `db:"series_id" json:"series_id,omitempty"`
	Date      time.Time       `db:"date" json:"date"`
	StartMin  int             `db:"start_min" json:"start_min"`
	EndMin    int             `db:"end_min" json:"end_min"`
	TeacherID *string         `db:"teacher_id" json:"teacher_id,omitempty"`
	StudentID *string         `db:"student_id" json:"student_id,omitempty"`
	BoothID   *string         `db:"booth_id" json:"booth_id,omitempty"`
	State     OccurrenceState `db:"state" json:"state"`
	Cancelled bool            `db:"cancelled" json:"cancelled"`
	Conflicts types.JSONText  `db:"conflicts" json:"conflicts,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Slot returns the occurrence window as a minute-of-day interval.
func (o Occurrence) Slot() TimeSlot {
	return TimeSlot{StartMin: o.StartMin, EndMin: o.EndMin}
}

// StartsAt converts the stored civil date and wall-clock start into an
// absolute instant in the given zone. Building the instant from calendar
// fields keeps the wall-clock time stable across DST transitions.
func (o Occurrence) StartsAt(loc *time.Location) time.Time {
	return time.Date(o.Date.Year(), o.Date.Month(), o.Date.Day(), o.StartMin/60, o.StartMin%60, 0, 0, loc)
}

// EndsAt converts the stored civil date and wall-clock end into an absolute
// instant in the given zone.
func (o Occurrence) EndsAt(loc *time.Location) time.Time {
	return time.Date(o.Date.Year(), o.Date.Month(), o.Date.Day(), o.EndMin/60, o.EndMin%60, 0, 0, loc)
}

// IdentityKey renders the idempotency identity of a generated occurrence.
func (o Occurrence) IdentityKey() string {
	seriesID := ""
	if o.SeriesID != nil {
		seriesID = *o.SeriesID
	}
	return fmt.Sprintf("%s|%s|%d|%d", seriesID, DateKey(o.Date), o.StartMin, o.EndMin)
}

// OccurrenceFilter narrows occurrence listings.
type OccurrenceFilter struct {
	SeriesID  string
	TeacherID string
	StudentID string
	BoothID   string
	DateFrom  *time.Time
	DateTo    *time.Time
	State     OccurrenceState
	Page      int
	PageSize  int
}

// ParticipantRefs carries the resource and participant ids involved in a
// series, used for bulk same-day occurrence prefetches.
type ParticipantRefs struct {
	TeacherID *string
	StudentID *string
	BoothID   *string
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey renders a date as its canonical YYYY-MM-DD form.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
