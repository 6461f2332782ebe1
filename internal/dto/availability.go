package dto

// CreateAvailabilityRequest declares an availability record for a
// participant. Exactly one of date/weekday must be set: REGULAR records take
// a weekday, EXCEPTION and ABSENCE records take a date.
type CreateAvailabilityRequest struct {
	OwnerID   string  `json:"ownerId" validate:"required"`
	Kind      string  `json:"kind" validate:"required,oneof=REGULAR EXCEPTION ABSENCE"`
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Weekday   *string `json:"weekday" validate:"omitempty,weekday"`
	FullDay   bool    `json:"fullDay"`
	StartTime string  `json:"startTime" validate:"required_unless=FullDay true"`
	EndTime   string  `json:"endTime" validate:"required_unless=FullDay true"`
	Note      *string `json:"note"`
}

// UpdateAvailabilityStatusRequest transitions a record's approval status.
type UpdateAvailabilityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// AvailabilityListRequest filters availability listings.
type AvailabilityListRequest struct {
	OwnerID  string `form:"ownerId"`
	Kind     string `form:"kind"`
	Status   string `form:"status"`
	Date     string `form:"date"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// ResolveRequest asks for one participant's effective windows on a date.
type ResolveRequest struct {
	OwnerID   string `form:"ownerId" validate:"required"`
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `form:"start"`
	EndTime   string `form:"end"`
}

// ResolveSharedRequest asks for the shared windows of two participants.
type ResolveSharedRequest struct {
	OwnerA    string `form:"ownerA" validate:"required"`
	OwnerB    string `form:"ownerB" validate:"required"`
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `form:"start"`
	EndTime   string `form:"end"`
}
