// Package search filters a listing catalog against user search criteria.
package search

import (
	"strings"

	"staybook/internal/domain"
)

// Criteria is a set of optional predicates. A nil pointer or empty slice means
// the predicate is absent and matches every listing.
type Criteria struct {
	Location  *string
	Types     []string // any of
	Amenities []string // all of
	PriceMin  *float64
	PriceMax  *float64
	Guests    *int
}

// IsEmpty reports whether no predicate is active.
func (c Criteria) IsEmpty() bool {
	return c.Location == nil && len(c.Types) == 0 && len(c.Amenities) == 0 &&
		c.PriceMin == nil && c.PriceMax == nil && c.Guests == nil
}

// Matches reports whether l satisfies every active predicate.
func (c Criteria) Matches(l domain.Listing) bool {
	if c.Location != nil && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(*c.Location)) {
		return false
	}
	if len(c.Types) > 0 && !contains(c.Types, l.Type) {
		return false
	}
	for _, a := range c.Amenities {
		if !l.HasAmenity(a) {
			return false
		}
	}
	if c.PriceMin != nil && l.Price < *c.PriceMin {
		return false
	}
	if c.PriceMax != nil && l.Price > *c.PriceMax {
		return false
	}
	if c.Guests != nil && l.Guests < *c.Guests {
		return false
	}
	return true
}

// Filter returns the listings matching c in their original order. The input
// slice is not modified.
func Filter(listings []domain.Listing, c Criteria) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if c.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
