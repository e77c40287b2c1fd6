package item

import (
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ByOwner lists the available items of any user
func ByOwner(c *gin.Context, d *internal.Deps) {
	ownerID := c.Param("ownerId")
	if !store.ValidID(ownerID) {
		apierr.Respond(c, apierr.BadRequest("Invalid owner ID"))
		return
	}

	ctx := c.Request.Context()

	items, err := d.Store.ItemsByOwner(ctx, ownerID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	available := items[:0]
	for _, i := range items {
		if i.Available {
			available = append(available, i)
		}
	}

	out, err := views(ctx, d, available)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(out),
		"items":   out,
	})
}

// Mine lists every item of the caller, available or not
func Mine(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	items, err := d.Store.ItemsByOwner(ctx, middleware.Claims(c).ID)
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
		"success": true,
		"count":   len(out),
		"items":   out,
	})
}

type stats struct {
	TotalItems       int64 `json:"totalItems"`
	AvailableItems   int64 `json:"availableItems"`
	UnavailableItems int64 `json:"unavailableItems"`
	MaxItems         int64 `json:"maxItems"`
	Remaining        int64 `json:"remaining"`
	CanAddMore       bool  `json:"canAddMore"`
}

func itemStats(items []model.Item, maxItems int64) stats {
	s := stats{
		TotalItems: int64(len(items)),
		MaxItems:   maxItems,
	}

	for _, i := range items {
		if i.Available {
			s.AvailableItems++
		}
	}

	s.UnavailableItems = s.TotalItems - s.AvailableItems
	s.Remaining = max(maxItems-s.TotalItems, 0)
	s.CanAddMore = s.Remaining > 0
	return s
}

// MyStats reports the caller's quota usage and availability counts
func MyStats(c *gin.Context, d *internal.Deps) {
	items, err := d.Store.ItemsByOwner(c.Request.Context(), middleware.Claims(c).ID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   itemStats(items, d.MaxItems),
	})
}
