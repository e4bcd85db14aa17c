// internal/cache/lru.go
//
// Small generic LRU used to hold one live form per visitor.  Safe for
// concurrent use.  Good for a few thousand entries.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a bounded least-recently-used map.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	ll      *list.List
	dict    map[K]*list.Element
	onEvict func(K, V)
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
// onEvict, when non-nil, runs for every entry pushed out by capacity or
// removed explicitly, outside the lock.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:     capacity,
		ll:      list.New(),
		dict:    make(map[K]*list.Element, capacity),
		onEvict: onEvict,
	}
}

// Get retrieves a value and marks it MRU.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(entry[K, V]).val, true
	}
	return val, false
}

// GetOrAdd returns the cached value for key, or stores and returns the one
// built by mk.  added reports whether mk ran.
func (c *LRU[K, V]) GetOrAdd(key K, mk func() V) (val V, added bool) {
	c.mu.Lock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		val = ele.Value.(entry[K, V]).val
		c.mu.Unlock()
		return val, false
	}
	val = mk()
	evicted, ok := c.insert(key, val)
	c.mu.Unlock()
	if ok && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.val)
	}
	return val, true
}

// Add inserts or updates a value.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	if ele, hit := c.dict[key]; hit {
		ele.Value = entry[K, V]{key, val}
		c.ll.MoveToFront(ele)
		c.mu.Unlock()
		return
	}
	evicted, ok := c.insert(key, val)
	c.mu.Unlock()
	if ok && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.val)
	}
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	ele, hit := c.dict[key]
	if hit {
		c.ll.Remove(ele)
		delete(c.dict, key)
	}
	c.mu.Unlock()
	if hit && c.onEvict != nil {
		e := ele.Value.(entry[K, V])
		c.onEvict(e.key, e.val)
	}
}

// Len reports current size.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// insert adds a new key and trims the tail.  Caller holds mu.
func (c *LRU[K, V]) insert(key K, val V) (evicted entry[K, V], ok bool) {
	c.dict[key] = c.ll.PushFront(entry[K, V]{key, val})
	if c.ll.Len() <= c.cap {
		return evicted, false
	}
	last := c.ll.Back()
	c.ll.Remove(last)
	evicted = last.Value.(entry[K, V])
	delete(c.dict, evicted.key)
	return evicted, true
}
