// Package cache provides the byte-value cache behind the report service.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/bazaar/internal/config"
)

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Store is the cache surface the services depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Module provides the configured Store to the Fx graph.
var Module = fx.Provide(New)

// New selects the cache backend by driver: redis, or a pass-through store
// that always misses when caching is disabled.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	if cfg.Cache.Driver == "noop" {
		logger.Info("caching disabled")
		return nullStore{}, nil
	}
	if cfg.Cache.Driver != "redis" {
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			logger.Info("redis cache connected", zap.String("addr", cfg.Cache.Redis.Addr))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return &redisStore{client: client, fallbackTTL: cfg.Cache.DefaultTTL}, nil
}

// nullStore misses on every read and swallows every write.
type nullStore struct{}

func (nullStore) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (nullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nullStore) Delete(context.Context, string) error { return nil }

type redisStore struct {
	client      *goredis.Client
	fallbackTTL time.Duration
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.fallbackTTL
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}
