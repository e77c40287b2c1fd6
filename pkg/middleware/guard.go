package middleware

import (
	"bitwise74/rental-api/internal/apierr"

	"github.com/gin-gonic/gin"
)

// Guard is a single authorization step. Returning an error rejects the
// request, the error is translated by apierr
type Guard func(c *gin.Context) error

// Guards runs gs in order and stops at the first failure. Each route lists
// its guards explicitly so the order is visible in the router
func Guards(gs ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, g := range gs {
			if err := g(c); err != nil {
				apierr.Respond(c, err)
				return
			}
		}

		c.Next()
	}
}
