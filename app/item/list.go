// Package item holds the listing, search and inventory controllers
package item

import (
	"math"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit    = 12
	maxLimit        = 100
	defaultDistance = 10
)

type listQuery struct {
	Category  string   `form:"category"`
	Condition string   `form:"condition"`
	PriceUnit string   `form:"priceUnit"`
	Search    string   `form:"search"`
	MinPrice  *float64 `form:"minPrice"`
	MaxPrice  *float64 `form:"maxPrice"`
	Lat       *float64 `form:"lat" binding:"omitempty,gte=-90,lte=90"`
	Lng       *float64 `form:"lng" binding:"omitempty,gte=-180,lte=180"`
	// Kilometers
	Distance float64 `form:"distance"`
	Page     int     `form:"page"`
	Limit    int     `form:"limit"`
}

func (q *listQuery) toStore() store.ItemQuery {
	sq := store.ItemQuery{
		AvailableOnly: true,
		Category:      ignoreAll(q.Category),
		Condition:     ignoreAll(q.Condition),
		PriceUnit:     ignoreAll(q.PriceUnit),
		Search:        q.Search,
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
		Page:          q.Page,
		Limit:         q.Limit,
	}

	if sq.Page < 1 {
		sq.Page = 1
	}
	if sq.Limit < 1 {
		sq.Limit = defaultLimit
	}
	sq.Limit = min(sq.Limit, maxLimit)
	sq.Page = min(sq.Page, store.MaxSkip/sq.Limit+1)

	if q.Lat != nil && q.Lng != nil {
		distance := q.Distance
		if distance <= 0 {
			distance = defaultDistance
		}

		sq.Near = &store.GeoFilter{
			Center: model.NewPoint(*q.Lng, *q.Lat),
			Radius: distance * 1000,
		}
	}

	return sq
}

func ignoreAll(v string) string {
	if v == "all" {
		return ""
	}
	return v
}

// List returns one page of available items matching the query filters
func List(c *gin.Context, d *internal.Deps) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierr.Respond(c, err)
		return
	}

	sq := q.toStore()
	ctx := c.Request.Context()

	items, total, err := d.Store.SearchItems(ctx, sq)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	out, err := views(ctx, d, items)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(out),
		"totalItems":  total,
		"totalPages":  int64(math.Ceil(float64(total) / float64(sq.Limit))),
		"currentPage": max(q.Page, 1),
		"items":       out,
	})
}
