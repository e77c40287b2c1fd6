package user

import (
	"errors"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"

	"github.com/gin-gonic/gin"
)

// loadUser resolves :id. Malformed and unknown ids are both a 404
func loadUser(c *gin.Context, d *internal.Deps) (*model.User, error) {
	id := c.Param("id")
	if !store.ValidID(id) {
		return nil, apierr.NotFound("Invalid UserID")
	}

	u, err := d.Store.UserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierr.NotFound("User not found")
		}
		return nil, err
	}

	return u, nil
}

func Get(c *gin.Context, d *internal.Deps) {
	u, err := loadUser(c, d)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u,
	})
}
