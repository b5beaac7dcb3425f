package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

const keyNamespace = "storefront:session"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore persists session state in redis, for shared-profile setups
// (kiosk terminals) where several hosts serve the same storefront session.
type RedisStore struct {
	store cmdable
	raw   *redis.Client
}

// NewRedisStore bootstraps a redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*RedisStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis session store connected")
	}
	return &RedisStore{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	return opts, nil
}

func (s *RedisStore) namespaced(key string) string {
	return keyNamespace + ":" + key
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, s.namespaced(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session key %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) set(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) clear(ctx context.Context, key string) error {
	if err := s.store.Del(ctx, s.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("clearing session key %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) ActiveOrderID(ctx context.Context) (string, error) {
	return s.get(ctx, keyActiveOrderID)
}

func (s *RedisStore) SetActiveOrderID(ctx context.Context, id string) error {
	return s.set(ctx, keyActiveOrderID, id)
}

func (s *RedisStore) ClearActiveOrderID(ctx context.Context) error {
	return s.clear(ctx, keyActiveOrderID)
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, keyAccessToken)
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, keyAccessToken, token)
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	return s.clear(ctx, keyAccessToken)
}

func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
