package repository

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// analysisTTL keeps cached reports for a day; identical inputs within
// that window are served without recomputing the scan.
const analysisTTL = 24 * time.Hour

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	logger *zap.Logger
}

// NewRedisCache connects to redis and verifies the connection with a
// few retried pings before handing the cache out.
func NewRedisCache(addr string, logger *zap.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ping := func() (string, error) {
		return rdb.Ping(pingCtx).Result()
	}
	_, err := backoff.Retry(pingCtx, ping,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("redis ping failed, retrying",
				zap.String("addr", addr),
				zap.Duration("retry_in", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}

	return &RedisCache{
		client: rdb,
		ctx:    context.Background(),
		logger: logger,
	}, nil
}

func (r *RedisCache) Get(key string) (string, bool) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(key string, value string) error {
	return r.client.Set(r.ctx, key, value, analysisTTL).Err()
}
