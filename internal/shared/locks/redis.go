package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusbook/internal/shared/apperror"
	"campusbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still holds our token.
const luaCompareAndDelete = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

type RedisLockerConfig struct {
	Prefix     string
	TTL        time.Duration
	RetryDelay time.Duration
	MaxWait    time.Duration
}

func DefaultRedisLockerConfig() RedisLockerConfig {
	return RedisLockerConfig{
		Prefix:     "lock:",
		TTL:        5 * time.Second,
		RetryDelay: 25 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// RedisLocker is a Locker shared by every API instance: SET NX PX with a random token,
// released by compare-and-delete.
type RedisLocker struct {
	client redis.Cmdable
	config RedisLockerConfig
	token  func() string
	log    *logger.Logger
}

func NewRedisLocker(client redis.Cmdable, config RedisLockerConfig, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.GetDefault()
	}
	return &RedisLocker{client: client, config: config, token: uuid.NewString, log: log}
}

// WithTokenFunc replaces the token generator.
func (l *RedisLocker) WithTokenFunc(token func() string) *RedisLocker {
	l.token = token
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.config.Prefix + key
	token := l.token()
	deadline := time.Now().Add(l.config.MaxWait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", redisKey, err)
		}
		if ok {
			return l.releaseFunc(redisKey, token), nil
		}

		if time.Now().Add(l.config.RetryDelay).After(deadline) {
			return nil, apperror.Conflict("resource is busy, retry", fmt.Errorf("lock %s held", redisKey))
		}

		timer := time.NewTimer(l.config.RetryDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, apperror.Conflict("gave up waiting for lock on "+key, ctx.Err())
		}
	}
}

func (l *RedisLocker) releaseFunc(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := l.client.Eval(ctx, luaCompareAndDelete, []string{redisKey}, token).Err(); err != nil {
				l.log.ErrorWithContext(ctx, "Failed to release lock", err, map[string]interface{}{"key": redisKey})
			}
		})
	}
}
