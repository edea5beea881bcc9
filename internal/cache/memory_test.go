package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryResponseCache_TTL(t *testing.T) {
	c := NewMemoryResponseCache(10*time.Millisecond, 0)
	defer c.Close()

	ctx := context.Background()
	key := "test:key"
	val := []byte("hello")

	if err := c.Set(ctx, key, val, 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatalf("expected hit immediately after Set")
	}
	if string(got) != "hello" {
		t.Fatalf("expected 'hello', got %q", got)
	}

	time.Sleep(30 * time.Millisecond)

	_, hit, err = c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after TTL failed: %v", err)
	}
	if hit {
		t.Fatalf("expected miss after TTL expiry")
	}
}

func TestMemoryResponseCache_OverwriteReplacesValue(t *testing.T) {
	c := NewMemoryResponseCache(time.Minute, 0)
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("first"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("second"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, _ := c.Get(ctx, "k")
	if !hit || string(got) != "second" {
		t.Fatalf("expected last write to win, got %q (hit=%v)", got, hit)
	}
}

func TestMemoryResponseCache_CopiesValue(t *testing.T) {
	c := NewMemoryResponseCache(time.Minute, 0)
	defer c.Close()

	ctx := context.Background()
	buf := []byte("abc")
	if err := c.Set(ctx, "k", buf, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	buf[0] = 'z'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value should not alias caller buffer, got %q", got)
	}
}

func TestMemoryResponseCache_NonPositiveTTLDeletes(t *testing.T) {
	c := NewMemoryResponseCache(time.Minute, 0)
	defer c.Close()

	ctx := context.Background()
	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	_ = c.Set(ctx, "k", []byte("v"), 0)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatalf("expected key removed by zero ttl")
	}
}

func TestMemoryResponseCache_EvictsAtCapacity(t *testing.T) {
	c := NewMemoryResponseCache(time.Minute, 3)
	defer c.Close()

	ctx := context.Background()
	// "k0" expires first and should be the victim.
	for i := 0; i < 3; i++ {
		ttl := time.Duration(i+1) * time.Minute
		if err := c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), ttl); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := c.Set(ctx, "k3", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "k0"); hit {
		t.Fatalf("expected soonest-expiring entry to be evicted")
	}
	if _, hit, _ := c.Get(ctx, "k3"); !hit {
		t.Fatalf("expected newest entry to be present")
	}
}

func TestMemoryResponseCache_OverwriteAtCapacityKeepsOthers(t *testing.T) {
	c := NewMemoryResponseCache(time.Minute, 2)
	defer c.Close()

	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("1"), time.Minute)
	_ = c.Set(ctx, "a", []byte("2"), time.Minute)

	if _, hit, _ := c.Get(ctx, "b"); !hit {
		t.Fatalf("overwriting an existing key must not evict another")
	}
}
