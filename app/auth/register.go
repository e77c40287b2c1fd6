package auth

import (
	"errors"
	"net/http"
	"strings"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/model"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Lengths are only checked once a value is present, missing fields get the
// combined message below
type registerBody struct {
	Name     string `json:"name" binding:"omitempty,min=3,max=50"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone" binding:"omitempty,min=10,max=15"`
}

func Register(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	data.Name = strings.TrimSpace(data.Name)
	data.Phone = strings.TrimSpace(data.Phone)
	data.Email = validators.NormalizeEmail(data.Email)

	if data.Name == "" || data.Email == "" || data.Password == "" || data.Phone == "" {
		apierr.Respond(c, apierr.BadRequest("Please provide all required fields: name, email, password, phone"))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		apierr.Respond(c, apierr.Wrap(apierr.KindBadRequest, err.Error(), err))
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		apierr.Respond(c, apierr.Wrap(apierr.KindBadRequest, err.Error(), err))
		return
	}

	hash, err := d.Argon.Hash(data.Password)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	user := &model.User{
		Name:         data.Name,
		Email:        data.Email,
		PasswordHash: hash,
		Phone:        data.Phone,
		IsActive:     true,
	}

	if err := d.Store.CreateUser(c.Request.Context(), user); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			apierr.Respond(c, apierr.Wrap(apierr.KindConflict, "User already exists with this email", err))
			return
		}

		apierr.Respond(c, err)
		return
	}

	zap.L().Debug("User registered", zap.String("userID", user.ID))

	token, err := d.Tokens.Issue(user)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   token,
	})
}
