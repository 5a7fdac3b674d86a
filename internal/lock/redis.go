package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slotHoldTTL bounds how long a hold may outlive a crashed holder. It only
// needs to cover the slot recheck inside the intent, not the booking flow.
const slotHoldTTL = 10 * time.Second

// Locker serializes concurrent booking intents for the same service slot
// across worker processes. The capacity recheck in storage is the source of
// truth; the hold just keeps contenders from interleaving.
type Locker interface {
	LockSlot(ctx context.Context, serviceID string, timestamp int64) (bool, error)
	UnlockSlot(ctx context.Context, serviceID string, timestamp int64) error
}

func slotKey(serviceID string, timestamp int64) string {
	return fmt.Sprintf("lock:booking:%s:%d", serviceID, timestamp)
}

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(redisAddr string) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisLock{client: client}, nil
}

func (r *RedisLock) LockSlot(ctx context.Context, serviceID string, timestamp int64) (bool, error) {
	const op = "lock.RedisLock.LockSlot"

	result, err := r.client.SetNX(ctx, slotKey(serviceID, timestamp), "1", slotHoldTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (r *RedisLock) UnlockSlot(ctx context.Context, serviceID string, timestamp int64) error {
	const op = "lock.RedisLock.UnlockSlot"

	_, err := r.client.Del(ctx, slotKey(serviceID, timestamp)).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}
