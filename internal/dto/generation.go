package dto

import "github.com/noah-isme/studio-booking-api/internal/models"

// GenerateRequest instructs the generator to materialize occurrences for a
// series over a lead window counted in days from the generation start date.
type GenerateRequest struct {
	LeadWindowDays int `json:"leadWindowDays" validate:"omitempty,min=1,max=366"`
}

// GenerationResult summarises one generation run. A run that lost the
// per-series lock returns the zero result.
type GenerationResult struct {
	Attempted         int `json:"attempted"`
	CreatedConfirmed  int `json:"createdConfirmed"`
	CreatedConflicted int `json:"createdConflicted"`
	Skipped           int `json:"skipped"`
}

// Created is the total number of occurrences the run materialized.
func (r GenerationResult) Created() int {
	return r.CreatedConfirmed + r.CreatedConflicted
}

// PreviewConflict is one would-be conflict reported by the preview analyzer.
type PreviewConflict struct {
	Date    string              `json:"date"`
	Kind    models.ConflictKind `json:"kind"`
	OwnerID string              `json:"ownerId,omitempty"`
	Message string              `json:"message,omitempty"`
}

// PreviewSummary aggregates the preview horizon.
type PreviewSummary struct {
	TotalSessions         int `json:"totalSessions"`
	SessionsWithConflicts int `json:"sessionsWithConflicts"`
	ValidSessions         int `json:"validSessions"`
}

// PreviewResult reports would-be conflicts over a horizon without writing
// anything.
type PreviewResult struct {
	SeriesID        string                       `json:"seriesId"`
	Conflicts       []PreviewConflict            `json:"conflicts"`
	ConflictsByDate map[string][]PreviewConflict `json:"conflictsByDate"`
	Summary         PreviewSummary               `json:"summary"`
}
