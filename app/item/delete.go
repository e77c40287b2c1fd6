package item

import (
	"context"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func Delete(c *gin.Context, d *internal.Deps) {
	i := middleware.Item(c)
	ctx := c.Request.Context()

	if err := d.Store.DeleteItem(ctx, i.ID); err != nil {
		apierr.Respond(c, err)
		return
	}

	if d.Images != nil {
		d.Images.Delete(context.WithoutCancel(ctx), i.Images)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item deleted successfully",
	})
}
