package cache

import (
	"sort"
	"sync"
)

// Cache is a string-keyed map safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]T),
	}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.entries[key]
	return value, exists
}

func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
}

func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Keys returns the keys whose value satisfies match, sorted. A nil match
// selects every key.
func (c *Cache[T]) Keys(match func(T) bool) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key, value := range c.entries {
		if match == nil || match(value) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
