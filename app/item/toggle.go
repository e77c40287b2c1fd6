package item

import (
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func ToggleAvailability(c *gin.Context, d *internal.Deps) {
	i := middleware.Item(c)
	available := !i.Available

	if err := d.Store.SetAvailability(c.Request.Context(), i.ID, available); err != nil {
		apierr.Respond(c, err)
		return
	}

	state := "unavailable"
	if available {
		state = "available"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Item is now " + state,
		"available": available,
	})
}
