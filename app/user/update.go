package user

import (
	"net/http"
	"strings"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/pkg/middleware"
	"bitwise74/rental-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updateBody struct {
	Name         *string         `json:"name" binding:"omitempty,min=3,max=50"`
	Email        *string         `json:"email"`
	Password     *string         `json:"password"`
	Phone        *string         `json:"phone" binding:"omitempty,min=10,max=15"`
	Address      *model.Address  `json:"address"`
	Location     *model.GeoPoint `json:"location"`
	ProfileImage *string         `json:"profileImage"`

	// Only applied when the caller is an admin
	IsAdmin         *bool    `json:"isAdmin"`
	IsActive        *bool    `json:"isActive"`
	IsVerified      *bool    `json:"isVerified"`
	IsEmailVerified *bool    `json:"isEmailVerified"`
	Rating          *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
	NumReviews      *int     `json:"numReviews" binding:"omitempty,gte=0"`
}

// Update lets users edit their own profile and admins edit anyone's
func Update(c *gin.Context, d *internal.Deps) {
	requestID := c.GetString("requestID")

	u, err := loadUser(c, d)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	admin, err := middleware.IsAdmin(c, d.Store)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	if u.ID != middleware.Claims(c).ID && !admin {
		apierr.Respond(c, apierr.Forbidden("Not authorized to update this user"))
		return
	}

	var data updateBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	if err := apply(d, u, &data, admin); err != nil {
		apierr.Respond(c, err)
		return
	}

	if err := d.Store.UpdateUser(c.Request.Context(), u); err != nil {
		apierr.Respond(c, err)
		return
	}

	zap.L().Debug("User updated",
		zap.String("userID", u.ID),
		zap.Bool("byAdmin", admin),
		zap.String("requestID", requestID),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    u,
	})
}

func apply(d *internal.Deps, u *model.User, data *updateBody, admin bool) error {
	if data.Name != nil {
		u.Name = strings.TrimSpace(*data.Name)
	}

	if data.Email != nil {
		email := validators.NormalizeEmail(*data.Email)
		if err := validators.EmailValidator(email); err != nil {
			return apierr.Wrap(apierr.KindBadRequest, err.Error(), err)
		}
		u.Email = email
	}

	if data.Password != nil {
		if err := validators.PasswordValidator(*data.Password); err != nil {
			return apierr.Wrap(apierr.KindBadRequest, err.Error(), err)
		}

		hash, err := d.Argon.Hash(*data.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}

	if data.Phone != nil {
		u.Phone = strings.TrimSpace(*data.Phone)
	}

	if data.Address != nil {
		if len(data.Address.City) > 80 {
			return apierr.BadRequest("Validation Error: city must be at most 80 characters long")
		}
		u.Address = *data.Address
	}

	if data.Location != nil {
		p := data.Location
		if len(p.Coordinates) != 2 || !validators.ValidLngLat(p.Lng(), p.Lat()) {
			return apierr.BadRequest("Please provide valid location coordinates [longitude, latitude]")
		}

		loc := model.NewPoint(p.Lng(), p.Lat())
		u.Location = &loc
	}

	if data.ProfileImage != nil {
		u.ProfileImage = *data.ProfileImage
	}

	if !admin {
		return nil
	}

	if data.IsAdmin != nil {
		u.IsAdmin = *data.IsAdmin
	}
	if data.IsActive != nil {
		u.IsActive = *data.IsActive
	}
	if data.IsVerified != nil {
		u.IsVerified = *data.IsVerified
	}
	if data.IsEmailVerified != nil {
		u.IsEmailVerified = *data.IsEmailVerified
	}
	if data.Rating != nil {
		u.Rating = *data.Rating
	}
	if data.NumReviews != nil {
		u.NumReviews = *data.NumReviews
	}

	return nil
}
