package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend    string
	TTL        time.Duration
	Prefix     string
	MaxEntries int // memory backend only
}

// NewResponseCache builds the backend named by cfg.Backend.
func NewResponseCache(cfg Config, redisClient redis.UniversalClient) (ResponseCache, error) {
	switch cfg.Backend {
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("cache backend %q requires a redis client", cfg.Backend)
		}
		return NewRedisResponseCache(redisClient, RedisConfig{
			Prefix: cfg.Prefix,
		}), nil
	case BackendMemory, "":
		return NewMemoryResponseCache(cfg.TTL, cfg.MaxEntries), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
