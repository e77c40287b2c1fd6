package store

import (
	"math"
	"strings"

	"bitwise74/rental-api/internal/model"
)

// GeoFilter restricts results to a circle around Center
type GeoFilter struct {
	Center model.GeoPoint
	// Radius in meters
	Radius float64
}

// ItemQuery is the backend neutral form of the listing filters. Every set
// field is AND-ed together, Search matches title OR description
type ItemQuery struct {
	AvailableOnly bool
	Category      string
	Condition     string
	PriceUnit     string
	MinPrice      *float64
	MaxPrice      *float64
	// Case insensitive substring, matched literally
	Search string
	Near   *GeoFilter

	// 1-based
	Page  int
	Limit int
}

// MaxSkip bounds the offset handed to backends
const MaxSkip = math.MaxInt32

// Skip is the number of matches before the requested page, saturating at MaxSkip
func (q ItemQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	if q.Page-1 > MaxSkip/q.Limit {
		return MaxSkip
	}
	return (q.Page - 1) * q.Limit
}

type NearQuery struct {
	GeoFilter
	Limit int
}

// Matches applies q's predicates to a single item, except for the geo filter.
// In-process backends use it, the mongo backend builds the same predicates as bson
func (q ItemQuery) Matches(i *model.Item) bool {
	if q.AvailableOnly && !i.Available {
		return false
	}
	if q.Category != "" && i.Category != q.Category {
		return false
	}
	if q.Condition != "" && i.Condition != q.Condition {
		return false
	}
	if q.PriceUnit != "" && i.PriceUnit != q.PriceUnit {
		return false
	}
	if q.MinPrice != nil && i.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && i.Price > *q.MaxPrice {
		return false
	}
	if q.Search != "" && !containsFold(i.Title, q.Search) && !containsFold(i.Description, q.Search) {
		return false
	}

	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
