package dataprocessing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheEntry is one memoized normalization result
type CacheEntry struct {
	Dataset  *Dataset
	CachedAt time.Time
	HitCount int
	seq      uint64
}

// CacheStats reports cache usage
type CacheStats struct {
	Entries   int     `json:"entries"`
	MaxSize   int     `json:"max_size"`
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
}

// NormalizeCache memoizes Normalize keyed by the SHA-256 of the uploaded
// bytes. Each session owns its own cache; nothing is shared process-wide.
// Concurrent requests for the same content run Normalize once.
type NormalizeCache struct {
	normalizer *Normalizer
	group      singleflight.Group

	mutex     sync.RWMutex
	entries   map[string]CacheEntry
	maxSize   int
	seq       uint64
	hitCount  int64
	missCount int64
}

// NewNormalizeCache creates a cache holding at most maxSize datasets.
// A maxSize of zero or less disables storage; every call normalizes.
func NewNormalizeCache(normalizer *Normalizer, maxSize int) *NormalizeCache {
	return &NormalizeCache{
		normalizer: normalizer,
		entries:    make(map[string]CacheEntry),
		maxSize:    maxSize,
	}
}

// GetOrNormalize returns the cached dataset for raw, normalizing it on a
// miss. hit reports whether the dataset came from the cache. Failed
// normalizations are not cached.
//
// The shared normalization ignores cancellation of whichever caller started
// it; each caller stops waiting when its own ctx is done.
func (c *NormalizeCache) GetOrNormalize(ctx context.Context, name string, raw []byte) (ds *Dataset, hit bool, err error) {
	key := ContentHash(raw)

	if ds, ok := c.get(key); ok {
		return ds, true, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if ds, ok := c.peek(key); ok {
			return ds, nil
		}
		ds, err := c.normalizer.Normalize(shared, name, raw)
		if err != nil {
			return nil, err
		}
		c.set(key, ds)
		return ds, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Dataset), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Get looks up a dataset by content hash
func (c *NormalizeCache) Get(hash string) (*Dataset, bool) {
	return c.get(hash)
}

// Invalidate drops every entry. Statistics are kept.
func (c *NormalizeCache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]CacheEntry)
}

// Len returns the number of cached datasets
func (c *NormalizeCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *NormalizeCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{
		Entries:   len(c.entries),
		MaxSize:   c.maxSize,
		HitCount:  c.hitCount,
		MissCount: c.missCount,
	}
	if total := c.hitCount + c.missCount; total > 0 {
		stats.HitRatio = float64(c.hitCount) / float64(total)
	}
	return stats
}

func (c *NormalizeCache) get(key string) (*Dataset, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.Dataset, true
}

// peek reads without touching statistics
func (c *NormalizeCache) peek(key string) (*Dataset, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	entry, ok := c.entries[key]
	return entry.Dataset, ok
}

func (c *NormalizeCache) set(key string, ds *Dataset) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.seq++
	c.entries[key] = CacheEntry{
		Dataset:  ds,
		CachedAt: time.Now(),
		seq:      c.seq,
	}
}

func (c *NormalizeCache) evictOldest() {
	var oldestKey string
	var oldestSeq uint64

	for key, entry := range c.entries {
		if oldestKey == "" || entry.seq < oldestSeq {
			oldestKey = key
			oldestSeq = entry.seq
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
