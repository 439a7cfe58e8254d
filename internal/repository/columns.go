package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/octobees/bizdirectory/api/internal/entity"
)

// writableColumnList is the insert/update column order; place_id stays first.
var writableColumnList = []string{
	"place_id",
	"title",
	"slug",
	"subtitle",
	"description",
	"category_name",
	"website",
	"phone",
	"phone_unformatted",
	"email",
	"address",
	"neighborhood",
	"street",
	"city",
	"postal_code",
	"state",
	"country_code",
	"lat",
	"lng",
	"total_score",
	"reviews_count",
	"featured",
	"permanently_closed",
	"temporarily_closed",
	"image_url",
	"logo",
	"categories",
	"reviews_distribution",
	"reviews",
	"image_urls",
	"opening_hours",
	"amenities",
	"seo_title",
	"seo_description",
}

var (
	writableColumnCount = len(writableColumnList)
	writableColumns     = strings.Join(writableColumnList, ", ")
	businessColumns     = "id, " + writableColumns + ", created_at, updated_at"
)

func writableArgs(b *entity.Business) []any {
	return []any{
		b.PlaceID,
		b.Title,
		b.Slug,
		b.Subtitle,
		b.Description,
		b.CategoryName,
		b.Website,
		b.Phone,
		b.PhoneUnformatted,
		b.Email,
		b.Address,
		b.Neighborhood,
		b.Street,
		b.City,
		b.PostalCode,
		b.State,
		b.CountryCode,
		b.Latitude,
		b.Longitude,
		b.TotalScore,
		b.ReviewsCount,
		b.Featured,
		b.PermanentlyClosed,
		b.TemporarilyClosed,
		b.ImageURL,
		b.Logo,
		jsonOrNil(b.Categories),
		jsonOrNil(b.ReviewsDistribution),
		jsonOrNil(b.Reviews),
		jsonOrNil(b.ImageURLs),
		jsonOrNil(b.OpeningHours),
		jsonOrNil(b.Amenities),
		b.SEOTitle,
		b.SEODescription,
	}
}

// businessScanTargets returns destinations matching businessColumns.
func businessScanTargets(b *entity.Business) []any {
	return []any{
		&b.ID,
		&b.PlaceID,
		&b.Title,
		&b.Slug,
		&b.Subtitle,
		&b.Description,
		&b.CategoryName,
		&b.Website,
		&b.Phone,
		&b.PhoneUnformatted,
		&b.Email,
		&b.Address,
		&b.Neighborhood,
		&b.Street,
		&b.City,
		&b.PostalCode,
		&b.State,
		&b.CountryCode,
		&b.Latitude,
		&b.Longitude,
		&b.TotalScore,
		&b.ReviewsCount,
		&b.Featured,
		&b.PermanentlyClosed,
		&b.TemporarilyClosed,
		&b.ImageURL,
		&b.Logo,
		&b.Categories,
		&b.ReviewsDistribution,
		&b.Reviews,
		&b.ImageURLs,
		&b.OpeningHours,
		&b.Amenities,
		&b.SEOTitle,
		&b.SEODescription,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

func placeholders(start, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func assignments(columns []string, start int) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s = $%d", col, start+i)
	}
	return strings.Join(parts, ", ")
}

func jsonOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
