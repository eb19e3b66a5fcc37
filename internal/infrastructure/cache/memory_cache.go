package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"tokenAggApp/internal/domain/model"
	"tokenAggApp/internal/domain/repository"
)

// MemoryCache is the process-local Cache backend: a TTL map with a
// background sweep of expired entries.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	hits    atomic.Int64
	misses  atomic.Int64
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

var _ repository.Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a memory cache sweeping expired entries every
// sweepInterval. sweepInterval <= 0 selects a one-minute default.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go c.sweepLoop(sweepInterval)
	return c
}

// Close stops the background sweep.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		c.misses.Add(1)
		return "", false, nil
	}
	c.hits.Add(1)
	return entry.value, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	return ok && !entry.expired(time.Now()), nil
}

func (c *MemoryCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0)
	for key, entry := range c.entries {
		if entry.expired(now) {
			continue
		}
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (c *MemoryCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Stats() model.CacheStats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	stats := model.CacheStats{Hits: hits, Misses: misses, Size: size}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

func (c *MemoryCache) IsConnected(ctx context.Context) bool { return true }
