package audit

import (
	"container/list"

	"github.com/hmarchand/wcagaudit/internal/core"
)

// EnrichmentCache is a bounded LRU cache from content fingerprint to computed
// enrichment, so duplicate content across pages is analyzed once. Entries are
// evicted only by capacity pressure, never by age.
type EnrichmentCache struct {
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value *core.Enrichment
}

// NewEnrichmentCache creates a cache with the given capacity (default 32).
func NewEnrichmentCache(capacity int) *EnrichmentCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &EnrichmentCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached enrichment for a fingerprint and marks it
// most-recently-used.
func (c *EnrichmentCache) Get(fingerprint string) (*core.Enrichment, bool) {
	el, ok := c.items[fingerprint]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// Put stores an enrichment, evicting the least-recently-used entry when full.
func (c *EnrichmentCache) Put(fingerprint string, value *core.Enrichment) {
	if el, ok := c.items[fingerprint]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).value = value
		return
	}

	el := c.order.PushFront(&cacheEntry{key: fingerprint, value: value})
	c.items[fingerprint] = el

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the current number of entries.
func (c *EnrichmentCache) Len() int {
	return c.order.Len()
}
