package root

import (
	"net/http"

	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Validate echoes the identity carried by a valid token
func Validate(c *gin.Context) {
	claims := middleware.Claims(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":      claims.ID,
			"name":    claims.Name,
			"email":   claims.Email,
			"isAdmin": claims.IsAdmin,
		},
		"expiresAt": claims.ExpiresAt.Time,
	})
}
