package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key holding the ledger lock token
const DefaultRedisKey = "route-ledger:lock"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLocker is a SET NX lock for ledgers shared by several hosts. The TTL
// bounds how long a crashed holder can block others.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client *redis.Client, key string, ttl, wait time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, wait: wait}
}

// Acquire implements Locker
func (l *RedisLocker) Acquire(ctx context.Context) (Release, error) {
	token := uuid.New().String()

	err := retry(ctx, l.wait, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("redis lock failed: %w", err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock failed: %w", err)
		}
		return nil
	}, nil
}
