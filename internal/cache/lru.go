package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRUCache evicts by recency once maxSize is reached and lazily drops
// entries past their TTL. It backs the per-owner report cache, so keys
// are namespaced "<ownerID>:<suffix>" and a whole owner can be
// invalidated at once.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	index   map[string]*list.Element
	order   *list.List // front = most recently used
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		index:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Key builds a namespaced cache key for an owner.
func Key(ownerID string, parts ...string) string {
	return ownerID + ":" + strings.Join(parts, ":")
}

// Get returns the cached value and refreshes its recency. Expired
// entries are dropped on access.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.index[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.evict(el)
		return zero, false
	}

	c.order.MoveToFront(el)
	return e.data, true
}

// Set stores a value under key, restarting its TTL. The least recently
// used entry is evicted when the cache is full.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, data: data, expiresAt: time.Now().Add(c.ttl)}

	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if tail := c.order.Back(); tail != nil {
			c.evict(tail)
		}
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.evict(el)
	}
}

// InvalidateOwner drops every entry namespaced under the given owner.
// Called after writes so stale aggregates are never served.
func (c *LRUCache[T]) InvalidateOwner(ownerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := ownerID + ":"
	return c.evictMatching(func(e *entry[T]) bool {
		return strings.HasPrefix(e.key, prefix)
	})
}

// CleanExpired removes every entry past its TTL and reports how many
// were dropped.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	return c.evictMatching(func(e *entry[T]) bool {
		return now.After(e.expiresAt)
	})
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) evictMatching(match func(*entry[T]) bool) int {
	var doomed []*list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		if match(el.Value.(*entry[T])) {
			doomed = append(doomed, el)
		}
	}
	for _, el := range doomed {
		c.evict(el)
	}
	return len(doomed)
}

func (c *LRUCache[T]) evict(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
