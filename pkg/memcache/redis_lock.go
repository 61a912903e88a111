package mem

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocks is a LockStore shared by every instance pointing at the same redis.
// A lock expires after ttl even if its holder dies.
type RedisLocks struct {
	client *redis.Client
	script *redis.Script
	prefix string
	poll   time.Duration
	log    *zap.Logger
}

func NewRedisLocks(client *redis.Client, log *zap.Logger) *RedisLocks {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocks{
		client: client,
		log:    log.Named("redis_lock"),
		script: redis.NewScript(lockReleaseScript),
		prefix: "khaja:lock:",
		poll:   25 * time.Millisecond,
	}
}

func (l *RedisLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if key == "" {
		return nil, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}

	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			// the key still expires after ttl, so a failed release only delays the next holder
			if err := l.script.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.log.Warn("release lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
