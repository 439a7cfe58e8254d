package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/octobees/bizdirectory/api/internal/entity"
)

// ErrMissingIdentity is returned when a row reaches the transformer without
// a placeid or title.
var ErrMissingIdentity = errors.New("placeid and title are required")

const (
	// DefaultCountryCode is stored when a row carries no country code.
	DefaultCountryCode = "US"

	seoDescriptionLimit = 160
	ellipsis            = "..."
)

var idnaProfile = idna.Lookup

// Transformer maps validated rows onto the business schema.
type Transformer struct {
	defaultCountry string
	logger         *zap.Logger
}

// NewTransformer builds a transformer; a blank country falls back to DefaultCountryCode.
func NewTransformer(defaultCountry string, logger *zap.Logger) *Transformer {
	defaultCountry = strings.ToUpper(strings.TrimSpace(defaultCountry))
	if defaultCountry == "" {
		defaultCountry = DefaultCountryCode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{defaultCountry: defaultCountry, logger: logger}
}

// Transform converts one row. Lenient fields that cannot be decoded are
// dropped and reported through the returned warnings.
func (t *Transformer) Transform(rowNum int, row RawRow) (*entity.Business, []string, error) {
	placeID, hasPlaceID := row.Value(colPlaceID)
	title, hasTitle := row.Value(colTitle)
	if !hasPlaceID || !hasTitle {
		return nil, nil, ErrMissingIdentity
	}

	var warnings []string
	b := &entity.Business{
		PlaceID:           placeID,
		Title:             title,
		Subtitle:          row["subtitle"],
		Description:       row["description"],
		CategoryName:      firstPresent(row, "categoryname", "category"),
		Website:           normalizeWebsite(row[colWebsite]),
		Phone:             row[colPhone],
		PhoneUnformatted:  row["phoneunformatted"],
		Email:             row[colEmail],
		Address:           row["address"],
		Neighborhood:      row["neighborhood"],
		Street:            row["street"],
		City:              row["city"],
		PostalCode:        row["postalcode"],
		State:             row["state"],
		CountryCode:       row["countrycode"],
		Latitude:          parseFloat(row["lat"]),
		Longitude:         parseFloat(row["lng"]),
		TotalScore:        parseFloat(row["totalscore"]),
		ReviewsCount:      parseInt(row["reviewscount"]),
		Featured:          parseBool(row["featured"]),
		PermanentlyClosed: parseBool(row["permanentlyclosed"]),
		TemporarilyClosed: parseBool(row["temporarilyclosed"]),
		ImageURL:          row["imageurl"],
		Logo:              row["logo"],
		SEOTitle:          row["seotitle"],
		SEODescription:    row["seodescription"],
	}

	if b.CountryCode == nil {
		country := t.defaultCountry
		b.CountryCode = &country
	}
	if b.PhoneUnformatted == nil && b.Phone != nil {
		b.PhoneUnformatted = normalizePhone(*b.Phone, *b.CountryCode)
	}

	targets := map[string]*json.RawMessage{
		"categories":          &b.Categories,
		"reviewsdistribution": &b.ReviewsDistribution,
		"reviews":             &b.Reviews,
		"imageurls":           &b.ImageURLs,
		"openinghours":        &b.OpeningHours,
		"amenities":           &b.Amenities,
	}
	for _, field := range jsonFields {
		doc, ok, err := parseJSONField(row[field])
		if err != nil {
			warning := fmt.Sprintf("row %d: field %s ignored: %v", rowNum, field, err)
			warnings = append(warnings, warning)
			t.logger.Warn("dropping malformed json field",
				zap.Int("row", rowNum),
				zap.String("place_id", placeID),
				zap.String("field", field),
				zap.Error(err),
			)
			continue
		}
		if ok {
			*targets[field] = doc
		}
	}

	if b.SEOTitle == nil {
		b.SEOTitle = normalizeString(buildSEOTitle(b))
	}
	if b.SEODescription == nil {
		b.SEODescription = normalizeString(buildSEODescription(b))
	}

	return b, warnings, nil
}

func firstPresent(row RawRow, keys ...string) *string {
	for _, key := range keys {
		if v := row[key]; v != nil {
			return v
		}
	}
	return nil
}

func parseBool(value *string) bool {
	return value != nil && *value == "true"
}

func parseFloat(value *string) *float64 {
	if value == nil {
		return nil
	}
	f, ok := parseNumber(*value)
	if !ok {
		return nil
	}
	return &f
}

func parseInt(value *string) *int {
	f := parseFloat(value)
	if f == nil {
		return nil
	}
	i := int(math.Trunc(*f))
	return &i
}

// parseJSONField reports ok=false for absent or placeholder values.
func parseJSONField(value *string) (json.RawMessage, bool, error) {
	if value == nil {
		return nil, false, nil
	}
	text := *value
	if isJSONPlaceholder(text) {
		return nil, false, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, false, errors.New("invalid JSON")
	}
	return json.RawMessage(text), true, nil
}

func normalizePhone(raw, region string) *string {
	number, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return nil
	}
	formatted := phonenumbers.Format(number, phonenumbers.E164)
	return &formatted
}

// normalizeWebsite converts internationalised hosts to their ASCII form.
func normalizeWebsite(value *string) *string {
	if value == nil {
		return nil
	}
	u, err := url.Parse(*value)
	if err != nil || u.Host == "" {
		return value
	}
	host := u.Hostname()
	ascii, err := idnaProfile.ToASCII(host)
	if err != nil || ascii == host {
		return value
	}
	if port := u.Port(); port != "" {
		u.Host = ascii + ":" + port
	} else {
		u.Host = ascii
	}
	normalized := u.String()
	return &normalized
}

func buildSEOTitle(b *entity.Business) string {
	title := b.Title
	if b.CategoryName != nil {
		title += " - " + *b.CategoryName
	}
	if b.City != nil {
		title += " in " + *b.City
	}
	return title
}

func buildSEODescription(b *entity.Business) string {
	if b.Description != nil {
		return truncate(*b.Description, seoDescriptionLimit)
	}

	var sb strings.Builder
	sb.WriteString(b.Title)
	switch {
	case b.Address != nil:
		sb.WriteString(" located at ")
		sb.WriteString(*b.Address)
		if b.City != nil {
			sb.WriteString(", ")
			sb.WriteString(*b.City)
		}
	case b.City != nil:
		sb.WriteString(" located in ")
		sb.WriteString(*b.City)
	}
	sb.WriteString(".")
	if b.Phone != nil {
		sb.WriteString(" Call ")
		sb.WriteString(*b.Phone)
		sb.WriteString(".")
	}
	return truncate(sb.String(), seoDescriptionLimit)
}

// truncate caps s at limit runes, ellipsis included.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := strings.TrimSpace(string(runes[:limit-len(ellipsis)]))
	return cut + ellipsis
}
