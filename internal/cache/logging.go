package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"placestats-edge/internal/metrics"
	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingResponseCache wraps a ResponseCache with logging + metrics.
type LoggingResponseCache struct {
	inner ResponseCache
}

// NewLoggingResponseCache returns a cache that logs and records metrics.
func NewLoggingResponseCache(inner ResponseCache) *LoggingResponseCache {
	return &LoggingResponseCache{inner: inner}
}

func (c *LoggingResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := c.inner.Get(ctx, key)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(result).Inc()

	fields := append(keyFields(key),
		zap.String("cache_result", result),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("response_cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("response_cache_get", fields...)
	}

	return value, ok, err
}

func (c *LoggingResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.inner.Set(ctx, key, value, ttl)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	fields := append(keyFields(key),
		zap.Duration("ttl", ttl),
		zap.Int("bytes", len(value)),
		zap.Float64("latency_ms", latencyMs),
	)

	logger := logging.L(ctx)
	if err != nil {
		metrics.CacheWritesTotal.WithLabelValues("error").Inc()
		logger.Error("response_cache_set", append(fields, zap.Error(err))...)
	} else {
		metrics.CacheWritesTotal.WithLabelValues("ok").Inc()
		logger.Debug("response_cache_set", fields...)
	}

	return err
}

// Ping forwards to the wrapped backend when it supports health checks.
func (c *LoggingResponseCache) Ping(ctx context.Context) error {
	p, ok := c.inner.(Pinger)
	if !ok {
		return errors.New("cache backend does not support ping")
	}
	return p.Ping(ctx)
}

func keyFields(key string) []zap.Field {
	fields := []zap.Field{zap.String("cache_key", key)}
	if method, hash, ok := parseResponseKey(key); ok {
		fields = append(fields,
			zap.String("request_method", method),
			zap.String("url_hash", hash),
		)
	}
	return fields
}

// Expecting: response:<METHOD>:<HASH>
func parseResponseKey(key string) (method, hash string, ok bool) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != "response" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
