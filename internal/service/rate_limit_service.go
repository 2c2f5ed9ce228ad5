package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ActionReserve is the rate-limit bucket shared by reserve and cancel
// attempts.
const ActionReserve = "clinic_reservation"

type rateLimitCounter interface {
	Increment(ctx context.Context, userID, action string, window time.Duration) (int64, error)
	Count(ctx context.Context, userID, action string) (int64, error)
}

// RateLimitService applies a fixed-window counter per (user, action). It sits
// in front of the reservation engine so abusive clients are rejected before
// any lock is taken or row is read.
type RateLimitService struct {
	counter rateLimitCounter
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewRateLimitService constructs the service.
func NewRateLimitService(counter rateLimitCounter, limit int, window time.Duration, logger *zap.Logger) *RateLimitService {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitService{counter: counter, limit: limit, window: window, logger: logger}
}

// IsLimited counts the attempt and reports whether the caller exceeded the
// window's budget. The counter key expires on its own, so the window resets
// lazily without a sweeper.
func (s *RateLimitService) IsLimited(ctx context.Context, userID, action string) (bool, error) {
	count, err := s.counter.Increment(ctx, userID, action, s.window)
	if err != nil {
		return false, err
	}
	if count > int64(s.limit) {
		s.logger.Warn("rate limit exceeded",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Int64("count", count))
		return true, nil
	}
	return false, nil
}

// RemainingRequests reports how many attempts the caller has left in the
// current window, floored at zero.
func (s *RateLimitService) RemainingRequests(ctx context.Context, userID, action string) (int, error) {
	count, err := s.counter.Count(ctx, userID, action)
	if err != nil {
		return 0, err
	}
	remaining := s.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Limit returns the configured budget per window.
func (s *RateLimitService) Limit() int { return s.limit }

// Window returns the configured window length.
func (s *RateLimitService) Window() time.Duration { return s.window }
