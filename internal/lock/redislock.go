package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TryLocker provides a Redis-backed exclusive lock with non-blocking acquire.
// A holder that dies without releasing is bounded by the TTL.
type TryLocker struct {
	R      *redis.Client
	Prefix string
}

// Acquire attempts to take the lock for key. It never waits: when the lock is
// already held it returns ok=false so the caller can reject the duplicate
// operation instead of queueing it. On success the returned release func frees
// the lock; releasing is safe even after the TTL expired the key.
func (l TryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	if l.R == nil {
		return nil, false, errors.New("lock: redis client not configured")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	redisKey := l.Prefix + key
	token := uuid.NewString()

	acquired, err := l.R.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}
	return func() { l.release(context.Background(), redisKey, token) }, true, nil
}

func (l TryLocker) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
