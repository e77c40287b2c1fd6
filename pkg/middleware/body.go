package middleware

import (
	"net/http"

	"bitwise74/rental-api/internal/apierr"

	"github.com/gin-gonic/gin"
)

// BodySizeLimiter caps request bodies at maxBytes. Oversized bodies are
// rejected up front when Content-Length says so, otherwise reading past the
// limit fails with *http.MaxBytesError which apierr turns into a 413
func BodySizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			apierr.Respond(c, apierr.New(apierr.KindTooLarge, "Request body size exceeds limit"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
