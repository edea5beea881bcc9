package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryResponseCache is an in-process ResponseCache bounded by entry count.
type MemoryResponseCache struct {
	mu              sync.RWMutex
	items           map[string]memoryEntry
	maxEntries      int
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
	cleanupInterval time.Duration
}

// NewMemoryResponseCache creates an in-memory cache.
// A cleanupInterval <= 0 defaults to one minute; maxEntries <= 0 means unbounded.
func NewMemoryResponseCache(cleanupInterval time.Duration, maxEntries int) *MemoryResponseCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	c := &MemoryResponseCache{
		items:           make(map[string]memoryEntry),
		maxEntries:      maxEntries,
		stopCleanup:     make(chan struct{}),
		cleanupInterval: cleanupInterval,
	}

	go c.cleanupExpired()

	return c
}

// Get returns the value for key if present and unexpired.
func (c *MemoryResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	now := time.Now()
	if !now.Before(entry.expiresAt) {
		c.mu.Lock()
		if e, exists := c.items[key]; exists && !now.Before(e.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores value under key for ttl, replacing any previous value.
// A ttl <= 0 removes the key.
func (c *MemoryResponseCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil
	}

	// decouple from the caller's buffer
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.items[key] = memoryEntry{
		value:     valueCopy,
		expiresAt: now.Add(ttl),
	}

	return nil
}

// evictLocked drops expired entries, then the soonest-to-expire one if the
// cache is still full. Caller holds c.mu.
func (c *MemoryResponseCache) evictLocked(now time.Time) {
	for k, v := range c.items {
		if !now.Before(v.expiresAt) {
			delete(c.items, k)
		}
	}
	if len(c.items) < c.maxEntries {
		return
	}

	var (
		victim   string
		earliest time.Time
	)
	for k, v := range c.items {
		if victim == "" || v.expiresAt.Before(earliest) {
			victim, earliest = k, v.expiresAt
		}
	}
	delete(c.items, victim)
}

// Ping always succeeds; the memory backend has no remote dependency.
func (c *MemoryResponseCache) Ping(context.Context) error {
	return nil
}

func (c *MemoryResponseCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, v := range c.items {
				if !now.Before(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine. Call this on shutdown or in tests.
func (c *MemoryResponseCache) Close() error {
	c.cleanupOnce.Do(func() {
		close(c.stopCleanup)
	})
	return nil
}

// Len returns the number of items currently held, expired or not.
func (c *MemoryResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
