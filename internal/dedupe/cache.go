// ABOUTME: Size-bounded TTL set for suppressing repeated reports.
// ABOUTME: Used by the session manager so a persistent fault is logged once per window.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// entry is one remembered key and when it was first seen in its window.
type entry[K comparable] struct {
	key K
	at  time.Time
}

// Cache remembers keys for a fixed window. Entries expire lazily on access;
// there is no background goroutine. When full, the oldest key is evicted.
type Cache[K comparable] struct {
	mu      sync.Mutex
	seen    map[K]*list.Element
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int

	now func() time.Time
}

// New creates a cache remembering at most maxSize keys for ttl each.
func New[K comparable](ttl time.Duration, maxSize int) *Cache[K] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[K]{
		seen:    make(map[K]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Seen reports whether key was marked within the window, marking it if not.
// A repeated key does not extend its window.
func (c *Cache[K]) Seen(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.expireLocked(now)

	if _, ok := c.seen[key]; ok {
		return true
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.seen[key] = c.order.PushBack(entry[K]{key: key, at: now})
	return false
}

// Forget drops key so the next Seen reports it as new.
func (c *Cache[K]) Forget(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.seen[key]; ok {
		c.order.Remove(elem)
		delete(c.seen, key)
	}
}

// Len returns the number of keys still inside their window.
func (c *Cache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(c.now())
	return len(c.seen)
}

// expireLocked drops entries whose window has passed. Entries are kept in
// first-seen order, so expiry stops at the first live one.
func (c *Cache[K]) expireLocked(now time.Time) {
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		e := front.Value.(entry[K])
		if now.Sub(e.at) < c.ttl {
			return
		}
		c.order.Remove(front)
		delete(c.seen, e.key)
	}
}

func (c *Cache[K]) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	c.order.Remove(front)
	delete(c.seen, front.Value.(entry[K]).key)
}
