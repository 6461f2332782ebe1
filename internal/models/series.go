package models

import (
	"strings"
	"time"
)

// SeriesStatus describes whether a series is eligible for generation.
type SeriesStatus string

const (
	SeriesActive SeriesStatus = "ACTIVE"
	SeriesPaused SeriesStatus = "PAUSED"
)

// ConflictPolicy decides which conflict classes mark a generated occurrence
// as CONFLICTED. Occurrences are created either way.
type ConflictPolicy string

const (
	PolicyStrict   ConflictPolicy = "STRICT"
	PolicyHardOnly ConflictPolicy = "HARD_ONLY"
	PolicyLenient  ConflictPolicy = "LENIENT"
)

// Blocks reports whether the policy flags the conflict kind as blocking.
func (p ConflictPolicy) Blocks(kind ConflictKind) bool {
	switch p {
	case PolicyStrict:
		return kind.IsHard() || kind.IsSoft()
	case PolicyHardOnly:
		return kind.IsHard()
	default:
		return false
	}
}

// Series is the recurring-lesson template occurrences are generated from.
// Identity is immutable; StartDate/EndDate bound all occurrences, and the
// watermark records the last fully processed date. The watermark only ever
// advances.
type Series struct {
	ID          string         `db:"id" json:"id"`
	BranchID    string         `db:"branch_id" json:"branch_id"`
	TeacherID   *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	StudentID   *string        `db:"student_id" json:"student_id,omitempty"`
	BoothID     *string        `db:"booth_id" json:"booth_id,omitempty"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	EndDate     *time.Time     `db:"end_date" json:"end_date,omitempty"`
	StartMin    int            `db:"start_min" json:"start_min"`
	DurationMin int            `db:"duration_min" json:"duration_min"`
	WeekdayMask int            `db:"weekday_mask" json:"weekday_mask"`
	Status      SeriesStatus   `db:"status" json:"status"`
	Timezone    string         `db:"timezone" json:"timezone"`
	Watermark   *time.Time     `db:"watermark" json:"watermark,omitempty"`
	Policy      ConflictPolicy `db:"policy" json:"policy"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Window returns the wall-clock slot an occurrence of this series occupies.
func (s Series) Window() TimeSlot {
	return TimeSlot{StartMin: s.StartMin, EndMin: s.StartMin + s.DurationMin}
}

// OnWeekday reports whether the weekday is part of the series pattern.
func (s Series) OnWeekday(day time.Weekday) bool {
	return s.WeekdayMask&(1<<uint(day)) != 0
}

// Location resolves the series IANA timezone, falling back to UTC.
func (s Series) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeriesFilter narrows series listings.
type SeriesFilter struct {
	BranchID  string
	TeacherID string
	StudentID string
	BoothID   string
	Status    SeriesStatus
	Page      int
	PageSize  int
}

// MaskFromWeekdays folds weekday values into the series bitmask.
func MaskFromWeekdays(days []time.Weekday) int {
	mask := 0
	for _, day := range days {
		mask |= 1 << uint(day)
	}
	return mask
}

// WeekdaysFromMask expands the bitmask into ordered weekday values.
func WeekdaysFromMask(mask int) []time.Weekday {
	var days []time.Weekday
	for day := time.Sunday; day <= time.Saturday; day++ {
		if mask&(1<<uint(day)) != 0 {
			days = append(days, day)
		}
	}
	return days
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday maps an upper/lower-case weekday name to its value.
func ParseWeekday(name string) (time.Weekday, bool) {
	day, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(name))]
	return day, ok
}
