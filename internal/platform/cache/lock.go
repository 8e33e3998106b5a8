package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("platform/cache: lock held")

// Locker hands out short-lived exclusive locks stored in Redis.
type Locker struct {
	client *redislock.Client
	prefix string
}

// NewLocker constructs Locker with keys namespaced by prefix.
func NewLocker(rdb redis.UniversalClient, prefix string) *Locker {
	return &Locker{client: redislock.New(rdb), prefix: prefix}
}

// Lock is an obtained lock.
type Lock struct {
	lock *redislock.Lock
}

// Obtain takes key for ttl without waiting.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("platform/cache: obtain %s: %w", key, err)
	}
	return &Lock{lock: lock}, nil
}

// Refresh extends the lock by ttl.
func (l *Lock) Refresh(ctx context.Context, ttl time.Duration) error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Refresh(ctx, ttl, nil)
}

// Release frees the lock. Releasing an expired lock is not an error.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil || l.lock == nil {
		return nil
	}
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}
