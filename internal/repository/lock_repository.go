package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "clinic_reservation_lock"

type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LockRepository implements the short-lived per-clinic reservation lock on
// Redis. It serializes the check-then-act sequence across process boundaries,
// on top of the database row lock: the row lock alone is correct, but this
// lock rejects a second in-flight attempt immediately instead of making it
// wait on the row.
type LockRepository struct {
	client lockClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewLockRepository constructs the lock repository. The TTL bounds how long a
// crashed holder can wedge a clinic; after it expires a new acquire succeeds.
func NewLockRepository(client lockClient, ttl time.Duration, logger *zap.Logger) *LockRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockRepository{client: client, ttl: ttl, logger: logger}
}

func lockKey(clinicID string) string {
	return fmt.Sprintf("%s:%s", lockKeyPrefix, clinicID)
}

// TryAcquire sets the lock token if and only if none exists (atomic SET NX).
// Non-blocking: returns false immediately when another holder is active.
func (r *LockRepository) TryAcquire(ctx context.Context, clinicID string) (bool, error) {
	token := fmt.Sprintf("%d:%s", time.Now().UnixNano(), clinicID)
	acquired, err := r.client.SetNX(ctx, lockKey(clinicID), token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire clinic lock %s: %w", clinicID, err)
	}
	if !acquired {
		r.logger.Warn("clinic lock busy", zap.String("clinic_id", clinicID))
	}
	return acquired, nil
}

// Release clears the lock token. Idempotent: releasing an expired or
// never-acquired lock is not an error.
func (r *LockRepository) Release(ctx context.Context, clinicID string) error {
	if err := r.client.Del(ctx, lockKey(clinicID)).Err(); err != nil {
		return fmt.Errorf("release clinic lock %s: %w", clinicID, err)
	}
	return nil
}
