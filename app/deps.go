package app

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/rental-api/aws"
	"bitwise74/rental-api/db"
	"bitwise74/rental-api/internal"
	"bitwise74/rental-api/internal/service"
	"bitwise74/rental-api/pkg/security"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps connects to everything the handlers need. The returned close
// function releases the connections in reverse order
func NewDeps(ctx context.Context) (*internal.Deps, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				zap.L().Warn("Failed to release resource", zap.Error(err))
			}
		}
	}

	s, err := db.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store, %w", viper.GetString("db.driver"), err)
	}
	closers = append(closers, func() error { return s.Close(context.Background()) })

	cooldown, closer, err := newCooldown(ctx)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, closer)

	d := &internal.Deps{
		Store:    s,
		Argon:    security.New(),
		Tokens:   service.NewTokenService(viper.GetString("jwt.secret"), viper.GetDuration("jwt.expiry")),
		MaxItems: viper.GetInt64("items.max_per_user"),
	}

	d.Verifier = service.NewVerifier(s, newMailer(), cooldown, d.Argon, service.OTPConfig{
		Length: viper.GetInt("otp.length"),
		TTL:    viper.GetDuration("otp.ttl"),
	})

	if viper.GetBool("storage.enabled") {
		s3, err := aws.NewS3(ctx)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Images = service.NewS3Images(s3, viper.GetString("aws.public_url"), viper.GetInt64("upload.max_size"))
	}

	return d, closeAll, nil
}

func newMailer() service.Mailer {
	if !viper.GetBool("mail.enabled") {
		return service.LogMailer{}
	}

	return service.NewSMTPMailer(service.SMTPConfig{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		Sender:   viper.GetString("mail.sender"),
	})
}

// newCooldown prefers redis so the limit holds across instances. A zero
// otp.resend_cooldown disables it
func newCooldown(ctx context.Context) (service.Cooldown, func() error, error) {
	ttl := viper.GetDuration("otp.resend_cooldown")
	if ttl <= 0 {
		return nil, func() error { return nil }, nil
	}

	if !viper.GetBool("redis.enabled") {
		c := service.NewMemoryCooldown(ttl)
		return c, c.Close, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to connect to redis, %w", err), rdb.Close())
	}

	return service.NewRedisCooldown(rdb, "otp:cooldown:", ttl), rdb.Close, nil
}
