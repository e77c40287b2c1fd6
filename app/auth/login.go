package auth

import (
	"errors"
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

const msgBadCredentials = "Invalid email or password"

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(c *gin.Context, d *internal.Deps) {
	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	email := validators.NormalizeEmail(data.Email)
	if email == "" || data.Password == "" {
		apierr.Respond(c, apierr.BadRequest("Please provide email and password"))
		return
	}

	user, err := d.Store.UserByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.Respond(c, apierr.Unauthenticated(msgBadCredentials))
			return
		}

		apierr.Respond(c, err)
		return
	}

	// Verification status is only reported to callers holding the password
	ok, err := d.Argon.Verify(data.Password, user.PasswordHash)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	if !ok {
		apierr.Respond(c, apierr.Unauthenticated(msgBadCredentials))
		return
	}

	if !user.IsEmailVerified {
		apierr.Respond(c, apierr.Unauthenticated("Email not verified. Please verify your email before logging in."))
		return
	}

	token, err := d.Tokens.Issue(user)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
	})
}
