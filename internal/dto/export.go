package dto

import "time"

// ExportRequest queues a schedule-sheet export for a series.
type ExportRequest struct {
	HorizonDays int `json:"horizonDays" validate:"omitempty,min=1,max=366"`
}

// ExportJobResponse reports the state of a queued export.
type ExportJobResponse struct {
	JobID       string     `json:"jobId"`
	SeriesID    string     `json:"seriesId"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
