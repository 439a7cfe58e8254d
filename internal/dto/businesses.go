package dto

import "github.com/google/uuid"

// DefaultListLimit is applied when a filter does not specify a limit.
const DefaultListLimit = 50

// MaxListLimit caps the page size a caller can request.
const MaxListLimit = 200

// BusinessFilter contains query parameters for business listing endpoints.
type BusinessFilter struct {
	CategoryID *uuid.UUID
	Search     string
	City       string
	Featured   *bool
	Limit      int
	Offset     int
}

// Normalized returns a copy with pagination defaults and caps applied.
func (f BusinessFilter) Normalized() BusinessFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// SetFeaturedRequest toggles the featured flag of a business.
type SetFeaturedRequest struct {
	Featured *bool `json:"featured"`
}
