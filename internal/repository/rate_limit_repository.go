package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "rate_limit"

// RateLimitRepository implements a lazy expiring per-user, per-action counter
// on Redis. The counter entry expires after the window elapses, which makes
// window reset implicit; slight bursts across window boundaries are an
// accepted trade against the complexity of a sliding log.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository constructs the repository.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

func rateLimitKey(userID, action string) string {
	return fmt.Sprintf("%s:%s:%s", rateLimitKeyPrefix, action, userID)
}

// Increment bumps the counter for (user, action) and returns the new count.
// The expiry is attached only when the key is first created in this window.
func (r *RateLimitRepository) Increment(ctx context.Context, userID, action string, window time.Duration) (int64, error) {
	key := rateLimitKey(userID, action)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment rate counter %s: %w", key, err)
	}
	return incr.Val(), nil
}

// Count returns the current counter value without incrementing.
func (r *RateLimitRepository) Count(ctx context.Context, userID, action string) (int64, error) {
	count, err := r.client.Get(ctx, rateLimitKey(userID, action)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("read rate counter: %w", err)
	}
	return count, nil
}
