package dto

// OccurrenceListRequest filters occurrence listings.
type OccurrenceListRequest struct {
	SeriesID  string `form:"seriesId"`
	TeacherID string `form:"teacherId"`
	StudentID string `form:"studentId"`
	BoothID   string `form:"boothId"`
	DateFrom  string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	State     string `form:"state" validate:"omitempty,oneof=CONFIRMED CONFLICTED"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// CancelOccurrenceRequest flags a single occurrence as cancelled. ActorID is
// filled from the authenticated user, never from the payload.
type CancelOccurrenceRequest struct {
	Reason  *string `json:"reason"`
	ActorID string  `json:"-"`
}
