package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers one time codes
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Sender address, defaults to Username
	Sender string
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(c SMTPConfig) *SMTPMailer {
	from := c.Sender
	if from == "" {
		from = c.Username
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(c.Host, c.Port, c.Username, c.Password),
		from:   from,
	}
}

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="text-align: center;">Email Verification</h2>
  <p>Hello {{.Name}},</p>
  <p>Please use the verification code below to verify your email address:</p>
  <p style="text-align: center; font-size: 30px; font-weight: bold; letter-spacing: 5px;">{{.Code}}</p>
  <p>This code will expire in {{.Expiry}}.</p>
  <p>If you didn't create an account with us, please ignore this email.</p>
</div>`))

func renderOTPMail(name, code string, ttl time.Duration) (string, error) {
	if name == "" {
		name = "User"
	}

	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Name   string
		Code   string
		Expiry string
	}{name, code, humanDuration(ttl)})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	if to == m.from {
		return errors.New("invalid email address")
	}

	body, err := renderOTPMail(name, code, ttl)
	if err != nil {
		return fmt.Errorf("failed to render mail, %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, "Rent & Return"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify Your Email - Rent & Return")
	msg.SetBody("text/html", body)

	// gomail has no context support, at least don't start a send that's already cancelled
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail, %w", err)
	}

	return nil
}

// LogMailer is used when mail.enabled is false. Codes only show up in debug logs
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, to, _, code string, ttl time.Duration) error {
	zap.L().Debug("Mail disabled, OTP not delivered",
		zap.String("to", to),
		zap.String("code", code),
		zap.Duration("ttl", ttl),
	)
	return nil
}
