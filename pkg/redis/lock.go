package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Lock is a held lock. Only the holder's token can release it.
type Lock struct {
	client *Client
	key    string
	token  string
}

// Locker hands out SET NX locks under a common key prefix.
type Locker struct {
	client    *Client
	keyPrefix string
}

func NewLocker(client *Client, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := l.keyPrefix + key
	token := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.client.logger.WithContext(ctx).Debugf("Acquired lock: %s", lockKey)

	return &Lock{
		client: l.client,
		key:    lockKey,
		token:  token,
	}, nil
}

func (lock *Lock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lock.client.rdb, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	lock.client.logger.WithContext(ctx).Debugf("Released lock: %s", lock.key)
	return nil
}

// WithLock runs fn while holding key. The lock is released even when fn
// panics. The release error is returned only when fn itself succeeded.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) (err error) {
	lock, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}

	defer func() {
		// release even if ctx was cancelled during fn
		releaseErr := lock.Release(context.WithoutCancel(ctx))
		if releaseErr == nil {
			return
		}
		if err != nil {
			l.client.logger.WithContext(ctx).WithError(releaseErr).Warnf("Failed to release lock: %s", lock.key)
			return
		}
		err = releaseErr
	}()

	return fn()
}
