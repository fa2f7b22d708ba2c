// internal/generation/lock.go
package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "genlock:"

// OrderLock enforces at most one concurrent generation run per order.
// The TTL bounds how long a crashed runner can hold an order hostage.
type OrderLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewOrderLock(rdb *redis.Client, ttl time.Duration) *OrderLock {
	return &OrderLock{redis: rdb, ttl: ttl}
}

// Acquire takes the per-order lock. Returns false when another run
// already holds it.
func (l *OrderLock) Acquire(ctx context.Context, orderID string) (bool, error) {
	token := uuid.NewString()
	return l.redis.SetNX(ctx, lockKeyPrefix+orderID, token, l.ttl).Result()
}

// Release frees the per-order lock.
func (l *OrderLock) Release(ctx context.Context, orderID string) error {
	return l.redis.Del(ctx, lockKeyPrefix+orderID).Err()
}
