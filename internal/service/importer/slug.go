package importer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxSlugLength   = 60
	placeIDSuffix   = 8
	maxSlugAttempts = 1000
	fallbackSlug    = "business"
)

// ErrSlugExhausted is returned when no free numeric suffix was found.
var ErrSlugExhausted = errors.New("no free slug candidate")

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugHyphens      = regexp.MustCompile(`-+`)
)

// SlugChecker reports whether a slug is already used by a record other than
// excludePlaceID.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string, excludePlaceID *string) (bool, error)
}

// SlugResolver derives unique slugs, probing the store for collisions.
type SlugResolver struct {
	store SlugChecker
}

// NewSlugResolver wires a resolver backed by the given store.
func NewSlugResolver(store SlugChecker) *SlugResolver {
	return &SlugResolver{store: store}
}

// Slugify lowercases text and reduces it to hyphen separated [a-z0-9] words,
// bounded to maxSlugLength.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// BaseSlug builds the first slug candidate for a record. Rows
// coming from bulk uploads carry the tail of their place id.
func BaseSlug(title, placeID string, fromUpload bool) string {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug
	}
	if !fromUpload || placeID == "" {
		return base
	}
	tail := placeID
	if len(tail) > placeIDSuffix {
		tail = tail[len(tail)-placeIDSuffix:]
	}
	if suffix := Slugify(tail); suffix != "" {
		return base + "-" + suffix
	}
	return base
}

// Resolve returns a slug no other record holds. excludePlaceID lets an
// existing record keep its own slug on update.
func (r *SlugResolver) Resolve(ctx context.Context, title, placeID string, fromUpload bool, excludePlaceID *string) (string, error) {
	base := BaseSlug(title, placeID, fromUpload)
	candidate := base
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		taken, err := r.store.SlugExists(ctx, candidate, excludePlaceID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", fmt.Errorf("%w for %q", ErrSlugExhausted, base)
}
