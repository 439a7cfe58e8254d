// Package catalog reconciles free-text business categories with the curated
// category catalogue.
package catalog

import (
	"strings"

	"github.com/octobees/bizdirectory/api/internal/entity"
)

// Match ranks, best first. NoMatch means the pair is unrelated.
const (
	NoMatch = iota
	RankExact
	RankBusinessPlural
	RankCatalogPlural
	RankContains
)

// Rank scores how well a business category matches a catalogue name.
// Comparison is case-insensitive and ignores surrounding whitespace.
func Rank(businessCategory, catalogName string) int {
	b := strings.ToLower(strings.TrimSpace(businessCategory))
	c := strings.ToLower(strings.TrimSpace(catalogName))
	if b == "" || c == "" {
		return NoMatch
	}
	switch {
	case b == c:
		return RankExact
	case Pluralize(b) == c:
		return RankBusinessPlural
	case Pluralize(c) == b:
		return RankCatalogPlural
	case strings.Contains(b, c) || strings.Contains(c, b):
		return RankContains
	}
	return NoMatch
}

// Best returns the catalogue entry with the lowest rank for businessCategory.
// Ties go to the entry listed first; nil means nothing matched.
func Best(businessCategory string, categories []entity.Category) *entity.Category {
	var (
		best     *entity.Category
		bestRank = NoMatch
	)
	for i := range categories {
		rank := Rank(businessCategory, categories[i].Name)
		if rank == NoMatch {
			continue
		}
		if best == nil || rank < bestRank {
			best = &categories[i]
			bestRank = rank
			if rank == RankExact {
				break
			}
		}
	}
	return best
}

// Attach sets the embedded category summary on every business.
func Attach(businesses []entity.Business, categories []entity.Category) {
	for i := range businesses {
		businesses[i].Category = nil
		if businesses[i].CategoryName == nil {
			continue
		}
		if match := Best(*businesses[i].CategoryName, categories); match != nil {
			businesses[i].Category = match.Summary()
		}
	}
}

// Pluralize applies English plural rules good enough for category names.
func Pluralize(word string) string {
	if word == "" {
		return word
	}
	switch {
	case strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(word[len(word)-2]):
		return word[:len(word)-1] + "ies"
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "z"),
		strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"):
		return word + "es"
	}
	return word + "s"
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
