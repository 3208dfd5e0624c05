package cache

import "sync"

// Cache is a thread-safe LRU cache holding at most limit entries.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*node[K, V]
	order   ring[K, V]
	limit   int

	hits, misses uint64
}

// New creates a cache. A limit of 0 means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	c := &Cache[K, V]{entries: make(map[K]*node[K, V]), limit: limit}
	c.order.init()
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.touch(n)
	return n.value, true
}

// Set stores a value, evicting the least recently used entry when the
// cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		c.order.touch(n)
		return
	}
	n := &node[K, V]{key: key, value: value}
	c.order.insertFront(n)
	c.entries[key] = n
	for c.limit > 0 && len(c.entries) > c.limit {
		old := c.order.oldest()
		if old == nil {
			break
		}
		c.order.remove(old)
		delete(c.entries, old.key)
	}
}

// Delete removes an entry. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.remove(n)
	delete(c.entries, key)
	return true
}

// Clear removes all entries and resets the statistics.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*node[K, V])
	c.order.init()
	c.hits, c.misses = 0, 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats contains cache statistics.
type Stats struct {
	Len    int
	Limit  int
	Hits   uint64
	Misses uint64
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: len(c.entries), Limit: c.limit, Hits: c.hits, Misses: c.misses}
}
