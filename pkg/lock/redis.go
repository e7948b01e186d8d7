package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const redisKeyPrefix = "reservo:lock:"

// RedisLocker implements the lock across service instances with
// SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client   redis.Cmdable
	opts     Options
	newToken func() string
}

func NewRedisLocker(client redis.Cmdable, opts Options) *RedisLocker {
	return &RedisLocker{
		client:   client,
		opts:     opts.withDefaults(),
		newToken: uuid.NewString,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.AcquireTimeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	token := l.newToken()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}

		ok, err := l.client.SetNX(ctx, redisKey, token, l.opts.TTL).Result()
		if err != nil {
			return nil, storeError(ctx, key, fmt.Errorf("failed to acquire lock %s: %w", key, err))
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(l.opts.RetryInterval):
		}
	}
}

func (l *RedisLocker) unlocker(redisKey, token string) Unlock {
	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			n, err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token).Int64()
			if err != nil {
				releaseErr = fmt.Errorf("failed to release lock %s: %w", redisKey, err)
				return
			}
			if n == 0 {
				releaseErr = fmt.Errorf("%w: %s", ErrLockLost, redisKey)
			}
		})
		return releaseErr
	}
}
