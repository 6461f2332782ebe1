package models

import "time"

// BlackoutPeriod closes a date range for everyone, independent of per-user
// availability records.
type BlackoutPeriod struct {
	ID        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the date falls inside the blackout range (inclusive).
func (b BlackoutPeriod) Covers(date time.Time) bool {
	day := DateOf(date)
	return !day.Before(DateOf(b.StartDate)) && !day.After(DateOf(b.EndDate))
}
