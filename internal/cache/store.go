// Package cache provides the key/value stores used to cache live market quotes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HuskeLuv/SFC-sub003/internal/config"
)

// Store is a byte-oriented key/value store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by QUOTE_CACHE ("memory" or "redis").
func New(cfg *config.Config) (Store, error) {
	switch cfg.QuoteCache {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("QUOTE_CACHE=redis requires REDIS_ADDR")
		}
		return NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	default:
		return nil, fmt.Errorf("unknown quote cache %q", cfg.QuoteCache)
	}
}
