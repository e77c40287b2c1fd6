package auth

import (
	"net/http"

	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/apierr"

	"github.com/gin-gonic/gin"
)

type sendOTPBody struct {
	Email string `json:"email"`
}

func SendOTP(c *gin.Context, d *internal.Deps) {
	var data sendOTPBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	if err := d.Verifier.IssueOTP(c.Request.Context(), data.Email); err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "otp send to email",
	})
}

type verifyOTPBody struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func VerifyOTP(c *gin.Context, d *internal.Deps) {
	var data verifyOTPBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	token, err := d.Verifier.VerifyOTP(c.Request.Context(), data.Email, data.OTP)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "OTP verified successfully",
		"resetToken": token,
	})
}

type resetPasswordBody struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
	Token       string `json:"token"`
}

func ResetPassword(c *gin.Context, d *internal.Deps) {
	var data resetPasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		apierr.Respond(c, err)
		return
	}

	if err := d.Verifier.ResetPassword(c.Request.Context(), data.Email, data.NewPassword, data.Token); err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset successfully",
	})
}
