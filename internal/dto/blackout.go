package dto

// CreateBlackoutRequest closes a date range for all participants.
type CreateBlackoutRequest struct {
	Label     string `json:"label" validate:"required"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}
