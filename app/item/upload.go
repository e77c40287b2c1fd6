package item

import (
	"errors"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/service"
	"bitwise74/rental-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UploadImage stores a single picture and returns the URL to put into an
// item's image list
func UploadImage(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	fh, err := c.FormFile("image")
	if err != nil {
		apierr.Respond(c, apierr.Wrap(apierr.KindBadRequest, "Please upload an image", err))
		return
	}

	f, err := fh.Open()
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	defer f.Close()

	url, err := d.Images.Upload(c.Request.Context(), middleware.Claims(c).ID, f)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageTooLarge):
			apierr.Respond(c, apierr.Wrap(apierr.KindTooLarge, "Image is too large", err))
		case errors.Is(err, service.ErrNotAnImage):
			apierr.Respond(c, apierr.Wrap(apierr.KindBadRequest, "Only image files are allowed", err))
		default:
			apierr.Respond(c, err)
		}
		return
	}

	zap.L().Debug("Image uploaded", zap.String("url", url), zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"url":     url,
	})
}
