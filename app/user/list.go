package user

import (
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"

	"github.com/gin-gonic/gin"
)

func List(c *gin.Context, d *internal.Deps) {
	users, err := d.Store.ListUsers(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}
