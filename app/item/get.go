package item

import (
	"errors"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/store"

	"github.com/gin-gonic/gin"
)

func Get(c *gin.Context, d *internal.Deps) {
	id := c.Param("id")
	if !store.ValidID(id) {
		apierr.Respond(c, apierr.BadRequest("Invalid item ID"))
		return
	}

	ctx := c.Request.Context()

	i, err := d.Store.ItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Respond(c, apierr.NotFound("Item not found"))
			return
		}

		apierr.Respond(c, err)
		return
	}

	v, err := view(ctx, d, i)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"item":    v,
	})
}
