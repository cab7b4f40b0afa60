// Package cache provides a bounded LRU cache with per-entry TTL,
// used to spare the chunk store repeated manifest and chunk reads.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Key is the composite cache key. Kind separates value classes
// (manifest, index, chunk) so IDs cannot collide across them.
type Key struct {
	ProjectID string
	Kind      string
	ID        string
}

type entry struct {
	key     Key
	value   any
	expires time.Time
}

// Cache is a capacity- and TTL-bounded LRU cache. Safe for
// concurrent use. Eviction is transparent to callers: a miss only
// costs a reload.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[Key]*list.Element
	now      func() time.Time

	hits   int
	misses int
}

// New returns a cache holding at most capacity entries, each valid
// for ttl. Non-positive capacity or ttl fall back to defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
		now:      time.Now,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().After(e.expires) {
		c.order.Remove(el)
		delete(c.items, key)
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Put stores a value, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expires = c.now().Add(c.ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	el := c.order.PushFront(&entry{key: key, value: value, expires: c.now().Add(c.ttl)})
	c.items[key] = el
}

// Invalidate drops every entry of a project, typically after
// reprocessing or manifest rebuild.
func (c *Cache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, el := range c.items {
		if key.ProjectID == projectID {
			c.order.Remove(el)
			delete(c.items, key)
		}
	}
}

// Len returns the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
