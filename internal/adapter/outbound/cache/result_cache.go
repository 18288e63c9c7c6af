// Package cache provides the in-memory conversion result cache keyed by
// source checksum.
package cache

import (
	"sync"
	"time"

	"esmconvert/internal/domain/valueobject"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResultCacheSize bounds the cache when no size is configured.
const DefaultResultCacheSize = 1024

// ResultCache is a thread-safe LRU cache of conversion results. Identical
// sources hash to the same checksum, so a hit returns the converted text
// without re-parsing. Eviction is least-recently-used.
type ResultCache struct {
	entries *lru.Cache[string, valueobject.TransformResult]
	mu      sync.Mutex
	stats   ResultCacheStatistics
}

// ResultCacheStatistics tracks cache performance counters.
type ResultCacheStatistics struct {
	Hits        int64
	Misses      int64
	HitRate     float64
	LastUpdated time.Time
}

// NewResultCache creates a cache bounded to size entries. Sizes below one
// fall back to DefaultResultCacheSize.
func NewResultCache(size int) (*ResultCache, error) {
	if size < 1 {
		size = DefaultResultCacheSize
	}
	entries, err := lru.New[string, valueobject.TransformResult](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{entries: entries}, nil
}

// Get returns the cached result for a source checksum.
func (c *ResultCache) Get(checksum string) (valueobject.TransformResult, bool) {
	result, ok := c.entries.Get(checksum)
	c.recordLookup(ok)
	return result, ok
}

// Add stores a result under its source checksum, evicting the
// least-recently-used entry when full.
func (c *ResultCache) Add(checksum string, result valueobject.TransformResult) {
	c.entries.Add(checksum, result)
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	return c.entries.Len()
}

// Purge removes every cached result.
func (c *ResultCache) Purge() {
	c.entries.Purge()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = ResultCacheStatistics{LastUpdated: time.Now()}
}

// Statistics returns a snapshot of the hit and miss counters.
func (c *ResultCache) Statistics() ResultCacheStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *ResultCache) recordLookup(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total)
	}
	c.stats.LastUpdated = time.Now()
}
