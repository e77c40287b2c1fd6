package service

import (
	"context"
	"time"

	"bitwise74/rental-api/internal/store"

	"go.uber.org/zap"
)

// OTPCleanup periodically drops expired codes so they don't linger on user
// records. It stops when ctx is cancelled
func OTPCleanup(ctx context.Context, t time.Duration, users store.UserStore) {
	ticker := time.NewTicker(t)

	zap.L().Debug("OTP cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				clearExpiredOTPs(ctx, users)
			}
		}
	}()
}

func clearExpiredOTPs(ctx context.Context, users store.UserStore) {
	n, err := users.ClearExpiredOTPs(ctx, time.Now())
	if err != nil {
		zap.L().Error("Failed to clear expired OTPs", zap.Error(err))
		return
	}

	if n > 0 {
		zap.L().Debug("Cleared expired OTPs", zap.Int64("count", n))
	}
}
