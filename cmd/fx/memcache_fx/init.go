package memcache_fx

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"khaja/internal/config"
	"khaja/internal/infra"
	mem "khaja/pkg/memcache"
)

var Module = fx.Provide(provideRedisClient, provideLockStore, provideResetTokenStore)

func provideRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	client, err := infra.NewRedisClient(cfg, log)
	if err != nil || client == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// provideLockStore serializes usage writes across instances when redis is configured and
// within this process otherwise.
func provideLockStore(client *redis.Client, log *zap.Logger) mem.LockStore {
	if client == nil {
		return mem.NewKeyedLocks()
	}
	return mem.NewRedisLocks(client, log)
}

func provideResetTokenStore(client *redis.Client) mem.ResetTokenStore {
	if client == nil {
		return mem.NewResetTokens(nil)
	}
	return mem.NewRedisResetTokens(client)
}
