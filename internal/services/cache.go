package services

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pawpack/backend/internal/logger"
)

// CacheEntry is a cached value and the time it was generated.
type CacheEntry[V any] struct {
	Value       V         `json:"value"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// ContentCache stores generated content by fingerprint. Entries older than the TTL are
// never returned and are superseded by the next Put.
type ContentCache[V any] interface {
	Get(key string) (CacheEntry[V], bool)
	Put(key string, value V)
	SweepExpired() int
	Len() int
}

// DefaultCacheCapacity bounds a MemoryCache; the least recently used entry is evicted first.
const DefaultCacheCapacity = 10000

// MemoryCache is a process-local ContentCache backed by an expirable LRU. Its contents
// do not survive a restart. Freshness is decided from GeneratedAt, so an entry is
// served until it is more than TTL old.
type MemoryCache[V any] struct {
	lru *expirable.LRU[string, CacheEntry[V]]
	ttl time.Duration

	now func() time.Time
}

var _ ContentCache[[]string] = (*MemoryCache[[]string])(nil)

func NewMemoryCache[V any](ttl time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		lru: expirable.NewLRU[string, CacheEntry[V]](DefaultCacheCapacity, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the entry for key if it is still fresh (age <= TTL).
func (c *MemoryCache[V]) Get(key string) (CacheEntry[V], bool) {
	entry, ok := c.lru.Get(key)
	if !ok || c.expired(entry, c.now()) {
		var zero CacheEntry[V]
		return zero, false
	}
	return entry, true
}

func (c *MemoryCache[V]) Put(key string, value V) {
	c.lru.Add(key, CacheEntry[V]{Value: value, GeneratedAt: c.now()})
}

// SweepExpired deletes stale entries and returns how many were removed.
func (c *MemoryCache[V]) SweepExpired() int {
	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if ok && c.expired(entry, now) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

func (c *MemoryCache[V]) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache[V]) expired(entry CacheEntry[V], now time.Time) bool {
	return now.Sub(entry.GeneratedAt) > c.ttl
}

// Sweeper is anything that can drop its stale entries.
type Sweeper interface {
	SweepExpired() int
}

// StartCacheSweeper sweeps on every tick until stopChan is closed.
func StartCacheSweeper(name string, sweeper Sweeper, interval time.Duration, stopChan <-chan struct{}) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stopChan:
				logger.Info("Cache sweeper stopped", map[string]interface{}{"cache": name})
				return
			case <-ticker.C:
				if removed := sweeper.SweepExpired(); removed > 0 {
					logger.Info("Swept expired cache entries", map[string]interface{}{
						"cache":   name,
						"removed": removed,
					})
				}
			}
		}
	}()
}
