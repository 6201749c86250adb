// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package concurrent provides small concurrency safe containers.
package concurrent

import "sync"

// Cache is a lock guarded map for idempotent, compile once fills. All
// lookups and fills for the same key serialize on one lock, so concurrent
// first time fills are safe and at most one fill result is retained.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]V
	keys []K
}

// NewCache initializes a [Cache].
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		data: make(map[K]V),
	}
}

// Get returns the cached value for k, if any.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[k]
	return v, ok
}

// GetOr returns the cached value for k, filling it with f on a miss. The
// fill runs under the cache lock; a failed fill caches nothing.
func (c *Cache[K, V]) GetOr(k K, f func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[k]
	if ok {
		return v, nil
	}

	v, err := f()
	if err != nil {
		return v, err
	}

	c.data[k] = v
	c.keys = append(c.keys, k)
	return v, nil
}

// Len reports the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Range calls f for each cached entry in insertion order, stopping early
// if f returns false. Entries filled while f runs are not visited.
func (c *Cache[K, V]) Range(f func(K, V) bool) {
	c.mu.Lock()
	keys := make([]K, len(c.keys))
	copy(keys, c.keys)
	data := make(map[K]V, len(c.data))
	for k, v := range c.data {
		data[k] = v
	}
	c.mu.Unlock()

	for _, k := range keys {
		if !f(k, data[k]) {
			return
		}
	}
}
