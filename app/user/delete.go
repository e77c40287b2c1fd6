package user

import (
	"context"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Delete removes the user together with every item they own
func Delete(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	u, err := loadUser(c, d)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	ctx := c.Request.Context()

	items, err := d.Store.ItemsByOwner(ctx, u.ID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	n, err := d.Store.DeleteByOwner(ctx, u.ID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	if err := d.Store.DeleteUser(ctx, u.ID); err != nil {
		apierr.Respond(c, err)
		return
	}

	if d.Images != nil {
		var urls []string
		for _, i := range items {
			urls = append(urls, i.Images...)
		}

		d.Images.Delete(context.WithoutCancel(ctx), urls)
	}

	zap.L().Info("User deleted",
		zap.String("userID", u.ID),
		zap.Int64("items", n),
		zap.String("requestID", requestID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "User deleted successfully",
		"deletedItems": n,
	})
}
