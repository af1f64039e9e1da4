package collector

import (
	"context"
	"sync"
	"time"

	"TaseTracker/internal/model"
)

type cacheKey struct {
	symbol   string
	period   model.Period
	interval model.Interval
}

type cacheEntry struct {
	series   *model.QuoteSeries
	storedAt time.Time
}

// Cache memoizes a Fetcher for a short freshness window. Hits are served
// from memory without touching the network; only successful fetches are
// stored.
type Cache struct {
	inner Fetcher
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

// NewCache wraps inner with a TTL cache.
func NewCache(inner Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *Cache) Name() string { return c.inner.Name() + "+cache" }

// Fetch returns a fresh cached series or delegates to the wrapped fetcher.
func (c *Cache) Fetch(ctx context.Context, symbol string, period model.Period, interval model.Interval) (*model.QuoteSeries, error) {
	key := cacheKey{symbol, period, interval}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(e.storedAt) < c.ttl {
		return e.series, nil
	}

	series, err := c.inner.Fetch(ctx, symbol, period, interval)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{series: series, storedAt: c.now()}
	c.mu.Unlock()
	return series, nil
}

// Invalidate drops every cached series for symbol.
func (c *Cache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.symbol == symbol {
			delete(c.entries, k)
		}
	}
}

// Purge drops expired entries.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}
