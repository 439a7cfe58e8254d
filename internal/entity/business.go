package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Business represents a listing stored in the directory.
type Business struct {
	ID                  uuid.UUID        `json:"id"`
	PlaceID             string           `json:"place_id"`
	Title               string           `json:"title"`
	Slug                string           `json:"slug"`
	Subtitle            *string          `json:"subtitle,omitempty"`
	Description         *string          `json:"description,omitempty"`
	CategoryName        *string          `json:"category_name,omitempty"`
	Website             *string          `json:"website,omitempty"`
	Phone               *string          `json:"phone,omitempty"`
	PhoneUnformatted    *string          `json:"phone_unformatted,omitempty"`
	Email               *string          `json:"email,omitempty"`
	Address             *string          `json:"address,omitempty"`
	Neighborhood        *string          `json:"neighborhood,omitempty"`
	Street              *string          `json:"street,omitempty"`
	City                *string          `json:"city,omitempty"`
	PostalCode          *string          `json:"postal_code,omitempty"`
	State               *string          `json:"state,omitempty"`
	CountryCode         *string          `json:"country_code,omitempty"`
	Latitude            *float64         `json:"lat,omitempty"`
	Longitude           *float64         `json:"lng,omitempty"`
	TotalScore          *float64         `json:"total_score,omitempty"`
	ReviewsCount        *int             `json:"reviews_count,omitempty"`
	Featured            bool             `json:"featured"`
	PermanentlyClosed   bool             `json:"permanently_closed"`
	TemporarilyClosed   bool             `json:"temporarily_closed"`
	ImageURL            *string          `json:"image_url,omitempty"`
	Logo                *string          `json:"logo,omitempty"`
	Categories          json.RawMessage  `json:"categories,omitempty"`
	ReviewsDistribution json.RawMessage  `json:"reviews_distribution,omitempty"`
	Reviews             json.RawMessage  `json:"reviews,omitempty"`
	ImageURLs           json.RawMessage  `json:"image_urls,omitempty"`
	OpeningHours        json.RawMessage  `json:"opening_hours,omitempty"`
	Amenities           json.RawMessage  `json:"amenities,omitempty"`
	SEOTitle            *string          `json:"seo_title,omitempty"`
	SEODescription      *string          `json:"seo_description,omitempty"`
	Category            *CategorySummary `json:"category"`
	CreatedAt           *time.Time       `json:"created_at,omitempty"`
	UpdatedAt           *time.Time       `json:"updated_at,omitempty"`
}
