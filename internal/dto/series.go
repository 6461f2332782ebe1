package dto

import "github.com/noah-isme/studio-booking-api/internal/models"

// CreateSeriesRequest describes a new recurring-lesson series.
type CreateSeriesRequest struct {
	BranchID    string   `json:"branchId" validate:"required"`
	TeacherID   *string  `json:"teacherId"`
	StudentID   *string  `json:"studentId"`
	BoothID     *string  `json:"boothId"`
	StartDate   string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	StartTime   string   `json:"startTime" validate:"required"`
	DurationMin int      `json:"durationMin" validate:"required,min=5,max=480"`
	Weekdays    []string `json:"weekdays" validate:"required,min=1,dive,weekday"`
	Timezone    string   `json:"timezone" validate:"required"`
	Policy      string   `json:"policy" validate:"omitempty,conflictpolicy"`
}

// UpdateSeriesRequest mutates the mutable attributes of a series.
type UpdateSeriesRequest struct {
	EndDate     *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	StartTime   *string  `json:"startTime"`
	DurationMin *int     `json:"durationMin" validate:"omitempty,min=5,max=480"`
	Weekdays    []string `json:"weekdays" validate:"omitempty,min=1,dive,weekday"`
	Status      *string  `json:"status" validate:"omitempty,oneof=ACTIVE PAUSED"`
	Policy      *string  `json:"policy" validate:"omitempty,conflictpolicy"`
}

// SeriesListRequest filters series listings.
type SeriesListRequest struct {
	BranchID  string `form:"branchId"`
	TeacherID string `form:"teacherId"`
	StudentID string `form:"studentId"`
	BoothID   string `form:"boothId"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// SeriesResponse decorates a series with its rendered weekly pattern.
type SeriesResponse struct {
	models.Series
	Weekdays  []string `json:"weekdays"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}
