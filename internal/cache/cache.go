// Package cache provides a ristretto-backed in-process cache for rendered
// post payloads.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache wraps a ristretto cache with a fixed TTL. Entries are keyed by
// document path plus content checksum, so a changed document naturally
// misses and stale payloads age out on their own.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// New creates a cache. maxCostBytes bounds the total size of cached
// values in bytes.
func New(maxCostBytes int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	return c.c.Get(key)
}

// Set stores a value in the cache, costed by its length.
func (c *Cache) Set(key string, value []byte) {
	c.c.SetWithTTL(key, value, int64(len(value)), c.ttl)
}

// Wait blocks until pending writes are applied. Only useful in tests.
func (c *Cache) Wait() {
	c.c.Wait()
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	c.c.Close()
}
