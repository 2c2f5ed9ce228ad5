package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockClient struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newFakeLockClient() *fakeLockClient {
	return &fakeLockClient{keys: map[string]struct{}{}}
}

func (f *fakeLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.keys[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = struct{}{}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeLockClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, held := f.keys[key]; held {
			delete(f.keys, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestTryAcquireRejectsSecondHolder(t *testing.T) {
	repo := NewLockRepository(newFakeLockClient(), time.Minute, nil)
	ctx := context.Background()

	acquired, err := repo.TryAcquire(ctx, "clinic-1")
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = repo.TryAcquire(ctx, "clinic-1")
	require.NoError(t, err)
	assert.False(t, acquired)

	// A different clinic is an independent lock.
	acquired, err = repo.TryAcquire(ctx, "clinic-2")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestReleaseAllowsReacquire(t *testing.T) {
	repo := NewLockRepository(newFakeLockClient(), time.Minute, nil)
	ctx := context.Background()

	acquired, err := repo.TryAcquire(ctx, "clinic-1")
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, repo.Release(ctx, "clinic-1"))

	acquired, err = repo.TryAcquire(ctx, "clinic-1")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := NewLockRepository(newFakeLockClient(), time.Minute, nil)
	ctx := context.Background()

	// Releasing a lock that was never acquired is not an error.
	require.NoError(t, repo.Release(ctx, "clinic-1"))

	acquired, err := repo.TryAcquire(ctx, "clinic-1")
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, repo.Release(ctx, "clinic-1"))
	require.NoError(t, repo.Release(ctx, "clinic-1"))
}
