package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"bitwise74/rental-api/internal/apierr"
	"bitwise74/rental-api/internal/store"
	"bitwise74/rental-api/pkg/security"
	"bitwise74/rental-api/pkg/validators"

	"go.uber.org/zap"
)

const msgInvalidOTP = "Invalid or expired OTP"

type OTPConfig struct {
	Length int
	TTL    time.Duration
}

// Verifier drives the email verification and password reset flow:
// unverified -> code issued -> verified (+ reset token) -> password replaced
type Verifier struct {
	users    store.UserStore
	mailer   Mailer
	cooldown Cooldown
	hasher   *security.ArgonHash
	cfg      OTPConfig
	now      func() time.Time
}

// NewVerifier wires the flow together. cooldown may be nil to disable the
// resend limit
func NewVerifier(users store.UserStore, mailer Mailer, cooldown Cooldown, hasher *security.ArgonHash, cfg OTPConfig) *Verifier {
	return &Verifier{
		users:    users,
		mailer:   mailer,
		cooldown: cooldown,
		hasher:   hasher,
		cfg:      cfg,
		now:      time.Now,
	}
}

// IssueOTP stores a fresh code on the user and mails it. A failed delivery
// is logged and the code stays valid so the user can simply ask again
func (v *Verifier) IssueOTP(ctx context.Context, email string) error {
	email = validators.NormalizeEmail(email)
	if email == "" {
		return apierr.BadRequest("Please provide email address")
	}

	if v.cooldown != nil {
		ok, err := v.cooldown.Acquire(ctx, email)
		if err != nil {
			zap.L().Warn("Cooldown check failed, allowing request", zap.Error(err))
		} else if !ok {
			return apierr.TooManyRequests("Please wait before requesting another code")
		}
	}

	code, err := security.NumericCode(v.cfg.Length)
	if err != nil {
		v.releaseCooldown(ctx, email)
		return fmt.Errorf("failed to generate otp, %w", err)
	}

	u, err := v.users.SetOTP(ctx, email, code, v.now().Add(v.cfg.TTL))
	if err != nil {
		v.releaseCooldown(ctx, email)

		if errors.Is(err, store.ErrNotFound) {
			return apierr.NotFound("User not found with this email")
		}
		return fmt.Errorf("failed to store otp, %w", err)
	}

	if err := v.mailer.SendOTP(ctx, u.Email, u.Name, code, v.cfg.TTL); err != nil {
		zap.L().Error("Failed to send OTP mail", zap.Error(err), zap.String("userID", u.ID))
	}

	return nil
}

// releaseCooldown hands the window back when no code was issued
func (v *Verifier) releaseCooldown(ctx context.Context, email string) {
	if v.cooldown == nil {
		return
	}

	if err := v.cooldown.Release(context.WithoutCancel(ctx), email); err != nil {
		zap.L().Warn("Failed to release OTP cooldown", zap.Error(err))
	}
}

// VerifyOTP consumes a valid code, marks the email verified and returns the
// password reset token
func (v *Verifier) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = validators.NormalizeEmail(email)
	if email == "" || code == "" {
		return "", apierr.BadRequest("Please provide email and OTP")
	}

	u, err := v.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apierr.NotFound("User not found")
		}
		return "", err
	}

	now := v.now()
	if u.OTP == "" || u.OTPExpiration == nil || now.After(*u.OTPExpiration) ||
		subtle.ConstantTimeCompare([]byte(u.OTP), []byte(code)) != 1 {
		return "", apierr.BadRequest(msgInvalidOTP)
	}

	token, err := security.ResetToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token, %w", err)
	}

	// Conditional on the code, a concurrent verify or a newer code makes this fail
	if err := v.users.ConsumeOTP(ctx, u.ID, code, now, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apierr.BadRequest(msgInvalidOTP)
		}
		return "", err
	}

	return token, nil
}

// ResetPassword replaces the password of the user holding token
func (v *Verifier) ResetPassword(ctx context.Context, email, password, token string) error {
	email = validators.NormalizeEmail(email)
	if email == "" || password == "" || token == "" {
		return apierr.BadRequest("Please provide email, new password and token")
	}

	u, err := v.users.UserByResetToken(ctx, email, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierr.NotFound("Invalid token or user not found")
		}
		return err
	}

	if err := validators.PasswordValidator(password); err != nil {
		return apierr.Wrap(apierr.KindBadRequest, "Password must be at least 6 characters long", err)
	}

	hash, err := v.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	if err := v.users.ReplacePassword(ctx, u.ID, token, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apierr.NotFound("Invalid token or user not found")
		}
		return err
	}

	return nil
}
