package markdown

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
)

// FragmentCache holds rendered directive HTML keyed by directive line.
// Handlers are pure over an immutable schema, so a line always renders to the
// same fragment for the lifetime of one schema. A nil cache is valid and
// never hits.
type FragmentCache struct {
	cache  *lru.LRU[string, string]
	hits   atomic.Int64
	misses atomic.Int64

	hitsCounter   prometheus.Counter
	missesCounter prometheus.Counter
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	ItemCount int
	HitRate   float64
}

// NewFragmentCache returns a cache holding up to size entries for ttl (no
// expiry when zero). hits and misses may be nil.
func NewFragmentCache(size int, ttl time.Duration, hits, misses prometheus.Counter) *FragmentCache {
	if size < 10 {
		size = 10
	}
	return &FragmentCache{
		cache:         lru.NewLRU[string, string](size, nil, ttl),
		hitsCounter:   hits,
		missesCounter: misses,
	}
}

// Get returns the cached fragment for line.
func (c *FragmentCache) Get(line string) (string, bool) {
	if c == nil {
		return "", false
	}
	out, ok := c.cache.Get(line)
	if !ok {
		c.misses.Add(1)
		if c.missesCounter != nil {
			c.missesCounter.Inc()
		}
		return "", false
	}
	c.hits.Add(1)
	if c.hitsCounter != nil {
		c.hitsCounter.Inc()
	}
	return out, true
}

// Add stores a rendered fragment.
func (c *FragmentCache) Add(line, out string) {
	if c == nil {
		return
	}
	c.cache.Add(line, out)
}

// Stats returns cache statistics
func (c *FragmentCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: c.cache.Len(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
