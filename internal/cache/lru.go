package cache

// node is an entry on the recency ring.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// ring is a circular doubly linked list around a sentinel. root.next is the
// most recently used node and root.prev the least. Callers hold Cache.mu.
type ring[K comparable, V any] struct {
	root node[K, V]
}

func (r *ring[K, V]) init() {
	r.root.prev = &r.root
	r.root.next = &r.root
}

func (r *ring[K, V]) insertFront(n *node[K, V]) {
	n.prev = &r.root
	n.next = r.root.next
	r.root.next.prev = n
	r.root.next = n
}

func (r *ring[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

func (r *ring[K, V]) touch(n *node[K, V]) {
	if r.root.next == n {
		return
	}
	r.remove(n)
	r.insertFront(n)
}

// oldest returns the least recently used node, or nil when empty.
func (r *ring[K, V]) oldest() *node[K, V] {
	if r.root.prev == &r.root {
		return nil
	}
	return r.root.prev
}
