package item

import (
	"net/http"
	"strings"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type locationBody struct {
	Coordinates []float64 `json:"coordinates" binding:"required,lnglat"`
}

type createBody struct {
	Title       string        `json:"title" binding:"required,min=3,max=100"`
	Description string        `json:"description" binding:"required,min=10,max=500"`
	Category    string        `json:"category" binding:"required,item_category"`
	Image       []string      `json:"image" binding:"required,min=1,dive,required"`
	Price       *float64      `json:"price" binding:"required,gte=0"`
	PriceUnit   string        `json:"priceUnit" binding:"omitempty,price_unit"`
	Condition   string        `json:"condition" binding:"required,item_condition"`
	Location    *locationBody `json:"location" binding:"required"`
}

// Create stores a new listing owned by the caller. ItemQuota runs first and
// leaves the limit info on the context
func Create(c *gin.Context, d *internal.Deps) {
	var data createBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	if data.PriceUnit == "" {
		data.PriceUnit = model.DefaultPriceUnit
	}

	coords := data.Location.Coordinates
	claims := middleware.Claims(c)

	i := &model.Item{
		Title:       strings.TrimSpace(data.Title),
		Description: strings.TrimSpace(data.Description),
		Category:    data.Category,
		Images:      data.Image,
		Price:       *data.Price,
		PriceUnit:   data.PriceUnit,
		Condition:   data.Condition,
		OwnerID:     claims.ID,
		Location:    model.NewPoint(coords[0], coords[1]),
		Available:   true,
	}

	ctx := c.Request.Context()

	if err := d.Store.CreateItem(ctx, i); err != nil {
		apierr.Respond(c, err)
		return
	}

	zap.L().Debug("Item created",
		zap.String("itemID", i.ID),
		zap.String("userID", claims.ID),
		zap.String("requestID", c.GetString("requestID")),
	)

	v, err := view(ctx, d, i)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"message":       "Item created successfully",
		"item":          v,
		"itemLimitInfo": middleware.Limit(c),
	})
}
