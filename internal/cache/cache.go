// Package cache provides a small in-memory TTL cache with FIFO eviction,
// used to avoid repeated provider lookups for the same word.
package cache

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the maximum number of entries kept before the
	// earliest-inserted one is evicted.
	DefaultCapacity = 500

	// DefaultTTL is how long an entry stays valid after insertion.
	DefaultTTL = 24 * time.Hour
)

// entry holds a cached value and its insertion time.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a mutex-guarded TTL cache with FIFO eviction. Expired entries
// are removed lazily when accessed; there is no background sweep.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]entry[V]
	order    []string // insertion order, oldest first
}

// New creates a cache with the given capacity and TTL. Non-positive values
// fall back to DefaultCapacity and DefaultTTL.
func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]entry[V]),
	}
}

// Normalize returns the canonical cache key for a word: whitespace-trimmed
// and lower-cased.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Get returns the cached value for word if present and not expired. An
// expired entry is deleted on access and reported as a miss.
func (c *Cache[V]) Get(word string) (V, bool) {
	key := Normalize(word)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	if time.Since(e.createdAt) >= c.ttl {
		// Lazy expiry
		c.removeLocked(key)
		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under the normalized word key. Inserting a new key at
// capacity evicts the earliest-inserted entry. Re-setting an existing key
// replaces its value and resets its age but keeps its eviction slot.
func (c *Cache[V]) Set(word string, value V) {
	key := Normalize(word)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry[V]{value: value, createdAt: time.Now()}
		return
	}

	if len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = entry[V]{value: value, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Delete removes the entry for word, if any.
func (c *Cache[V]) Delete(word string) {
	key := Normalize(word)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Flush removes all entries.
func (c *Cache[V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.order = c.order[:0]
}

// Len returns the number of stored entries, including entries that have
// expired but have not been touched since.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
