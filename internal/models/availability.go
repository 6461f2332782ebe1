package models

import "time"

// AvailabilityKind tags how a record participates in resolution.
type AvailabilityKind string

const (
	AvailabilityRegular   AvailabilityKind = "REGULAR"
	AvailabilityException AvailabilityKind = "EXCEPTION"
	AvailabilityAbsence   AvailabilityKind = "ABSENCE"
)

// ApprovalStatus gates a record's participation; only APPROVED records are
// read during resolution.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// AvailabilityRecord declares when a participant is available or absent.
// REGULAR records are keyed by weekday; EXCEPTION and ABSENCE records are
// keyed by an exact date. A record scopes either a date or a weekday, never
// both.
type AvailabilityRecord struct {
	ID        string           `db:"id" json:"id"`
	OwnerID   string           `db:"owner_id" json:"owner_id"`
	Kind      AvailabilityKind `db:"kind" json:"kind"`
	Status    ApprovalStatus   `db:"status" json:"status"`
	Date      *time.Time       `db:"date" json:"date,omitempty"`
	Weekday   *int             `db:"weekday" json:"weekday,omitempty"`
	FullDay   bool             `db:"full_day" json:"full_day"`
	StartMin  int              `db:"start_min" json:"start_min"`
	EndMin    int              `db:"end_min" json:"end_min"`
	Note      *string          `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Slot returns the record's window, expanding full-day records to 00:00–23:59.
func (r AvailabilityRecord) Slot() TimeSlot {
	if r.FullDay {
		return FullDaySlot()
	}
	return TimeSlot{StartMin: r.StartMin, EndMin: r.EndMin}
}

// AvailabilityFilter narrows record listings.
type AvailabilityFilter struct {
	OwnerID  string
	Kind     AvailabilityKind
	Status   ApprovalStatus
	Date     *time.Time
	Page     int
	PageSize int
}

// ResolutionStrategy classifies which baseline produced a shared result.
type ResolutionStrategy string

const (
	StrategyException ResolutionStrategy = "EXCEPTION"
	StrategyRegular   ResolutionStrategy = "REGULAR"
	StrategyMixed     ResolutionStrategy = "MIXED"
	StrategyNone      ResolutionStrategy = "NONE"
)

// AvailabilityDetails is one participant's resolved availability for a date.
type AvailabilityDetails struct {
	OwnerID        string        `json:"owner_id"`
	Date           time.Time     `json:"date"`
	HasExceptions  bool          `json:"has_exceptions"`
	HasRegular     bool          `json:"has_regular"`
	ExceptionSlots []TimeSlot    `json:"exception_slots,omitempty"`
	RegularSlots   []TimeSlot    `json:"regular_slots,omitempty"`
	EffectiveSlots []TimeSlot    `json:"effective_slots,omitempty"`
	Available      bool          `json:"available"`
	ConflictKind   *ConflictKind `json:"conflict_kind,omitempty"`
}

// SharedAvailability is the intersection of two participants' availability.
type SharedAvailability struct {
	A           AvailabilityDetails `json:"a"`
	B           AvailabilityDetails `json:"b"`
	SharedSlots []TimeSlot          `json:"shared_slots,omitempty"`
	Available   bool                `json:"available"`
	Strategy    ResolutionStrategy  `json:"strategy"`
	Message     string              `json:"message,omitempty"`
}
