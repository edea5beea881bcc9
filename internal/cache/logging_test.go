package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("boom")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("boom")
}

func TestLoggingResponseCachePassesThrough(t *testing.T) {
	inner := NewMemoryResponseCache(time.Minute, 0)
	defer inner.Close()

	c := NewLoggingResponseCache(inner)
	ctx := context.Background()

	if err := c.Set(ctx, "response:GET:abc", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "response:GET:abc")
	if err != nil || !hit || string(got) != "v" {
		t.Fatalf("Get = %q, %v, %v", got, hit, err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestLoggingResponseCacheLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))

	c := NewLoggingResponseCache(failingCache{})

	if _, _, err := c.Get(ctx, "response:GET:abc"); err == nil {
		t.Fatalf("expected error from Get")
	}
	if err := c.Set(ctx, "response:GET:abc", nil, time.Second); err == nil {
		t.Fatalf("expected error from Set")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("expected ping error for backend without Ping")
	}

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errs) != 2 {
		t.Fatalf("expected 2 error logs, got %d", len(errs))
	}
	if got := errs[0].ContextMap()["request_method"]; got != "GET" {
		t.Fatalf("expected parsed request_method field, got %v", got)
	}
}
