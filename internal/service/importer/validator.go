package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Column names the import pipeline understands.
const (
	colPlaceID = "placeid"
	colTitle   = "title"
	colEmail   = "email"
	colPhone   = "phone"
	colWebsite = "website"
)

// jsonFields are the columns carrying JSON sub-documents.
var jsonFields = []string{"categories", "reviewsdistribution", "reviews", "imageurls", "openinghours", "amenities"}

// numericFields are the columns that must hold numbers when present.
var numericFields = []string{"lat", "lng", "totalscore", "reviewscount"}

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", ".", "", "\t", "")
	requiredFields  = []string{colTitle, colPlaceID}
)

// ValidationError is one violated constraint on a parsed row.
type ValidationError struct {
	Row     int
	Field   string
	Value   *string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// Validate checks every row against every rule and returns all violations,
// ordered by row and then by rule. Row numbers are 1-based.
func Validate(rows []RawRow) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		add := func(field string, value *string, message string) {
			errs = append(errs, ValidationError{Row: rowNum, Field: field, Value: value, Message: message})
		}

		for _, field := range requiredFields {
			value, ok := row.Value(field)
			if !ok {
				add(field, nil, fmt.Sprintf("%s is required", field))
				continue
			}
			if strings.ContainsAny(value, "\r\n") {
				add(field, row[field], fmt.Sprintf("%s must not contain line breaks", field))
			}
		}

		if placeID, ok := row.Value(colPlaceID); ok {
			if first, dup := seen[placeID]; dup {
				add(colPlaceID, row[colPlaceID], fmt.Sprintf("duplicate placeid in upload (first seen on row %d)", first))
			} else {
				seen[placeID] = rowNum
			}
		}

		if email, ok := row.Value(colEmail); ok && !emailPattern.MatchString(email) {
			add(colEmail, row[colEmail], "invalid email format")
		}

		if phone, ok := row.Value(colPhone); ok && !validPhone(phone) {
			add(colPhone, row[colPhone], "invalid phone number")
		}

		if website, ok := row.Value(colWebsite); ok && !validWebsite(website) {
			add(colWebsite, row[colWebsite], "website must start with http:// or https://")
		}

		for _, field := range jsonFields {
			if value, ok := row.Value(field); ok && !isJSONPlaceholder(value) && !json.Valid([]byte(value)) {
				add(field, row[field], "invalid JSON")
			}
		}

		for _, field := range numericFields {
			if value, ok := row.Value(field); ok {
				if _, ok := parseNumber(value); !ok {
					add(field, row[field], "must be numeric")
				}
			}
		}
	}

	return errs
}

// parseNumber accepts finite decimal numbers only; NaN and infinities are
// rejected even though strconv parses them.
func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func validPhone(raw string) bool {
	return phonePattern.MatchString(phoneSeparators.Replace(raw))
}

func validWebsite(raw string) bool {
	lowered := strings.ToLower(raw)
	return strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://")
}

// isJSONPlaceholder reports exporter placeholders that stand for "no value".
func isJSONPlaceholder(raw string) bool {
	return raw == "undefined" || raw == "null"
}
