package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 14 * time.Minute

// ErrLockHeld means another replica owns the current cycle.
var ErrLockHeld = errors.New("cron lock held by another instance")

// ReleaseFunc gives up a lock obtained from Acquire.
type ReleaseFunc func(ctx context.Context) error

// Lock hands out exclusive ownership of a maintenance cycle.
type Lock interface {
	Acquire(ctx context.Context) (ReleaseFunc, error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease keyed by a random owner token. The TTL should
// stay below the cycle interval so a crashed replica cannot block the next
// cycle.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

// Acquire returns ErrLockHeld when the key is already owned.
func (l *RedisLock) Acquire(ctx context.Context) (ReleaseFunc, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error { return l.release(ctx, token) }, nil
}

// release deletes the key only while it still carries token; an expired and
// re-acquired lease belongs to someone else.
func (l *RedisLock) release(ctx context.Context, token string) error {
	current, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lock owner: %w", err)
	}
	if current != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
