package icons

import (
	"sync"
	"sync/atomic"

	"channel-viewer/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// iconCache keeps the most recently used rendered icons in memory and
// reports its size to the icon cache gauges. A zero capacity disables it.
type iconCache struct {
	entries *lru.Cache[string, []byte]
	bytes   atomic.Int64

	// serializes Put so a replaced value is accounted exactly once
	mu sync.Mutex
}

func newIconCache(capacity int) *iconCache {
	c := &iconCache{}
	if capacity <= 0 {
		return c
	}

	entries, err := lru.NewWithEvict(capacity, func(_ string, data []byte) {
		c.bytes.Add(-int64(len(data)))
	})
	if err != nil {
		return c
	}
	c.entries = entries
	return c
}

func (c *iconCache) Get(key string) ([]byte, bool) {
	if c.entries == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *iconCache) Contains(key string) bool {
	return c.entries != nil && c.entries.Contains(key)
}

func (c *iconCache) Put(key string, data []byte) {
	if c.entries == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Add replaces existing values without calling the evict callback
	if old, ok := c.entries.Peek(key); ok {
		c.bytes.Add(-int64(len(old)))
	}
	c.bytes.Add(int64(len(data)))
	c.entries.Add(key, data)

	metrics.IconCacheEntries.Set(float64(c.entries.Len()))
	metrics.IconCacheBytes.Set(float64(c.bytes.Load()))
}

func (c *iconCache) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Bytes returns the total size of the cached icons.
func (c *iconCache) Bytes() int64 {
	return c.bytes.Load()
}
