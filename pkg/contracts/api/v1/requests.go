// Package api contains API contract definitions for the fish production service.
// Version v1 represents the current stable API version.
package api

import (
	"fishpulse/pkg/contracts/domain"
)

// FilterRequest represents the dataset filter carried in query parameters.
// Repeated parameters select several values: ?year=2020&year=2021.
type FilterRequest struct {
	Years   []int    `json:"years,omitempty" query:"year" validate:"omitempty,max=200,dive,min=1,max=9999"`
	Months  []string `json:"months,omitempty" query:"month" validate:"omitempty,max=12,dive,required,max=32"`
	Species []string `json:"species,omitempty" query:"species" validate:"omitempty,max=1000,dive,required,max=256"`
}

// ToDomain converts the request into a domain filter.
func (r FilterRequest) ToDomain() domain.ProductionFilter {
	return domain.ProductionFilter{
		Years:   r.Years,
		Months:  r.Months,
		Species: r.Species,
	}
}

// TopSpeciesRequest represents a species ranking request.
type TopSpeciesRequest struct {
	FilterRequest
	N int `json:"n" query:"n" validate:"min=1,max=100"`
}

// ExportRequest represents an export download request.
type ExportRequest struct {
	FilterRequest
	Format string `json:"format" validate:"required,oneof=csv xlsx"`
}

// Response envelopes

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// UploadResponse is returned after a dataset has been ingested.
type UploadResponse struct {
	SessionID string             `json:"session_id"`
	Dataset   domain.DatasetInfo `json:"dataset"`
	CacheHit  bool               `json:"cache_hit"`
}

// RecordsResponse lists the records of a filtered view.
type RecordsResponse struct {
	Count   int                       `json:"count"`
	Records []domain.ProductionRecord `json:"records"`
}

// TopSpeciesResponse carries a species ranking and the requested size.
type TopSpeciesResponse struct {
	N       int                    `json:"n"`
	Species []domain.SpeciesVolume `json:"species"`
}
