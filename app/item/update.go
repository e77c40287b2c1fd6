package item

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Every field is optional. There's deliberately no owner field, ownership
// can't be transferred
type updateBody struct {
	Title       *string       `json:"title" binding:"omitempty,min=3,max=100"`
	Description *string       `json:"description" binding:"omitempty,min=10,max=500"`
	Category    *string       `json:"category" binding:"omitempty,item_category"`
	Image       []string      `json:"image" binding:"omitempty,min=1,dive,required"`
	Price       *float64      `json:"price" binding:"omitempty,gte=0"`
	PriceUnit   *string       `json:"priceUnit" binding:"omitempty,price_unit"`
	Condition   *string       `json:"condition" binding:"omitempty,item_condition"`
	Location    *locationBody `json:"location"`
	Available   *bool         `json:"available"`
}

func (b *updateBody) apply(i *model.Item) {
	if b.Title != nil {
		i.Title = strings.TrimSpace(*b.Title)
	}
	if b.Description != nil {
		i.Description = strings.TrimSpace(*b.Description)
	}
	if b.Category != nil {
		i.Category = *b.Category
	}
	if b.Image != nil {
		i.Images = b.Image
	}
	if b.Price != nil {
		i.Price = *b.Price
	}
	if b.PriceUnit != nil {
		i.PriceUnit = *b.PriceUnit
	}
	if b.Condition != nil {
		i.Condition = *b.Condition
	}
	if b.Location != nil {
		i.Location = model.NewPoint(b.Location.Coordinates[0], b.Location.Coordinates[1])
	}
	if b.Available != nil {
		i.Available = *b.Available
	}
}

// Update edits an item loaded by RequireItemOwner
func Update(c *gin.Context, d *internal.Deps) {
	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	i := middleware.Item(c)
	old := slices.Clone(i.Images)

	data.apply(i)

	ctx := c.Request.Context()

	if err := d.Store.UpdateItem(ctx, i); err != nil {
		apierr.Respond(c, err)
		return
	}

	// Drop images that are no longer referenced
	if d.Images != nil {
		var removed []string
		for _, u := range old {
			if !slices.Contains(i.Images, u) {
				removed = append(removed, u)
			}
		}
		d.Images.Delete(context.WithoutCancel(ctx), removed)
	}

	updated, err := d.Store.ItemByID(ctx, i.ID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	v, err := view(ctx, d, updated)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item updated successfully",
		"item":    v,
	})
}
