package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping redis test in short mode")
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	client, err := NewClient(context.Background(), Config{Host: host, Port: 6379}, logging.Nop())
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_AcquireRelease(t *testing.T) {
	client := getTestClient(t)
	locker := NewLocker(client, "fern-test:")
	key := uuid.NewString()
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)
}

func TestLocker_WithLock(t *testing.T) {
	client := getTestClient(t)
	locker := NewLocker(client, "fern-test:")
	key := uuid.NewString()
	ctx := context.Background()

	ran := false
	require.NoError(t, locker.WithLock(ctx, key, time.Minute, func() error {
		ran = true
		_, err := locker.Acquire(ctx, key, time.Minute)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		return nil
	}))
	assert.True(t, ran)

	boom := errors.New("boom")
	assert.ErrorIs(t, locker.WithLock(ctx, key, time.Minute, func() error { return boom }), boom)
}

func TestLocker_WithLockReleasesOnPanic(t *testing.T) {
	client := getTestClient(t)
	locker := NewLocker(client, "fern-test:")
	key := uuid.NewString()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = locker.WithLock(ctx, key, time.Minute, func() error {
			panic("source reader crashed")
		})
	})

	lock, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", Config{Host: "cache", Port: 6380}.Addr())
}
