package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes write attempts across API instances. The Postgres
// transaction remains the authoritative guard; the lock only narrows
// the window in which two instances race to the same business-day.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SET NX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker wraps an existing redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	if client == nil {
		panic("schedule: redis client required")
	}
	return &RedisLocker{client: client}
}

// Lock attempts to take the named lock; false means another writer
// holds it.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, "schedlock:"+key, "1", ttl).Result()
	if err != nil {
		return false, &TransientError{Op: "schedule: acquire redis lock", Err: err}
	}
	return ok, nil
}

// Unlock releases the named lock.
func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, "schedlock:"+key).Err(); err != nil {
		return &TransientError{Op: "schedule: release redis lock", Err: err}
	}
	return nil
}

// NoopLocker disables cross-instance locking (single-instance deploys
// and tests); the store's advisory lock still serializes writers.
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (NoopLocker) Unlock(context.Context, string) error                      { return nil }

func dayLockKey(businessID string, at time.Time) string {
	return fmt.Sprintf("%s:%s", businessID, at.Format("2006-01-02"))
}
