package docstore

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/wordbridge/linguameter/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				// The store may come up after us; readers already treat
				// transient failures as ErrUnavailable.
				log.Warn("document store not reachable at startup",
					zap.String("addr", cfg.RedisAddr),
					zap.Error(err),
				)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return client
}

var Module = fx.Module("docstore",
	fx.Provide(NewClient),
	fx.Provide(New),
)
