package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// TextCache stores extracted document text under caller-built keys.
type TextCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

type TextCacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewTextCache(log *logger.Logger, cfg TextCacheConfig) (*TextCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &TextCache{
		log: log.With("service", "RedisTextCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

// Get reports false on a miss.
func (c *TextCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *TextCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, c.ttl).Err()
}

func (c *TextCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *TextCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
