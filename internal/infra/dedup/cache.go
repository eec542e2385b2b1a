package dedup

import "sync"

const DefaultMaxSize = 1000

// Cache is a bounded, lossy set of already-processed event ids. It guards the
// dispatcher against repeated delivery of the same inbound event.
//
// Eviction is deliberately crude: when capacity is exceeded the entire set is
// cleared before the new id is inserted. The cache may therefore forget ids
// under load; that caps memory without LRU bookkeeping and is part of the
// documented dedup contract, not an accident.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]struct{}
}

func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Cache{
		maxSize: maxSize,
		seen:    make(map[string]struct{}),
	}
}

// Seen reports whether the event id is currently remembered.
func (c *Cache) Seen(eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[eventID]
	return ok
}

// MarkSeen records an event id, clearing the whole set first when it is full.
func (c *Cache) MarkSeen(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) >= c.maxSize {
		c.seen = make(map[string]struct{})
	}
	c.seen[eventID] = struct{}{}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
