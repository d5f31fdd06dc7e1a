package cache

import (
	"github.com/dgraph-io/ristretto"

	"shortlink/internal/domain"
)

// LinkCache keeps resolved links in memory keyed by slug. Lifecycle
// checks (active, expired) are evaluated per request, so a cached
// record only needs eviction on deactivate or delete.
type LinkCache struct {
	cache *ristretto.Cache
}

func New(maxSizePow2 int) (*LinkCache, error) {
	maxCost := max(1, int64(1)<<maxSizePow2)
	numCounters := max(1, maxCost/100) // ~100 bytes per entry estimate

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &LinkCache{cache: cache}, nil
}

func (c *LinkCache) Get(slug string) (*domain.Link, bool) {
	val, found := c.cache.Get(slug)
	if !found {
		return nil, false
	}
	return val.(*domain.Link), true
}

func (c *LinkCache) Set(slug string, link *domain.Link) {
	cost := int64(len(slug) + len(link.OriginalURL))
	c.cache.Set(slug, link, cost)
}

func (c *LinkCache) Del(slug string) {
	c.cache.Del(slug)
}

func (c *LinkCache) Close() {
	c.cache.Close()
}

func (c *LinkCache) Stats() (hits, misses uint64, ratio float64) {
	metrics := c.cache.Metrics
	hits = metrics.Hits()
	misses = metrics.Misses()
	ratio = metrics.Ratio()
	return
}
