package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCounter struct {
	counts map[string]int64
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{counts: make(map[string]int64)}
}

func (m *memoryCounter) key(userID, action string) string { return action + ":" + userID }

func (m *memoryCounter) Increment(ctx context.Context, userID, action string, window time.Duration) (int64, error) {
	m.counts[m.key(userID, action)]++
	return m.counts[m.key(userID, action)], nil
}

func (m *memoryCounter) Count(ctx context.Context, userID, action string) (int64, error) {
	return m.counts[m.key(userID, action)], nil
}

func TestRateLimitAllowsBudgetThenRejects(t *testing.T) {
	svc := NewRateLimitService(newMemoryCounter(), 5, time.Minute, zap.NewNop())

	for i := 0; i < 5; i++ {
		limited, err := svc.IsLimited(context.Background(), "stu-1", ActionReserve)
		require.NoError(t, err)
		assert.False(t, limited, "attempt %d should be allowed", i+1)
	}
	limited, err := svc.IsLimited(context.Background(), "stu-1", ActionReserve)
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestRateLimitIsPerUser(t *testing.T) {
	counter := newMemoryCounter()
	svc := NewRateLimitService(counter, 1, time.Minute, zap.NewNop())

	limited, err := svc.IsLimited(context.Background(), "stu-1", ActionReserve)
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = svc.IsLimited(context.Background(), "stu-2", ActionReserve)
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = svc.IsLimited(context.Background(), "stu-1", ActionReserve)
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestRateLimitRemainingRequests(t *testing.T) {
	counter := newMemoryCounter()
	svc := NewRateLimitService(counter, 5, time.Minute, zap.NewNop())

	remaining, err := svc.RemainingRequests(context.Background(), "stu-1", ActionReserve)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	for i := 0; i < 7; i++ {
		_, err := svc.IsLimited(context.Background(), "stu-1", ActionReserve)
		require.NoError(t, err)
	}
	remaining, err = svc.RemainingRequests(context.Background(), "stu-1", ActionReserve)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
