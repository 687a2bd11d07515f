// Package cache provides the lazy, insert-only, single-flight caches used
// throughout the registry and provider layers. Entries are never evicted
// except by an explicit Invalidate call; a failed load is memoized just
// like a successful one, matching the
// source's "insert-only lazy cache" design.
package cache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// result holds a memoized (value, error) pair.
type result[V any] struct {
	value V
	err   error
}

// Cache is a per-key lazy cache: the loader for a given key runs at most
// once, even under concurrent callers, via singleflight. Subsequent calls
// for the same key return the memoized result without re-invoking load.
type Cache[K comparable, V any] struct {
	group   singleflight.Group
	mu      sync.RWMutex
	results map[K]result[V]
}

// New returns an empty Cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{results: make(map[K]result[V])}
}

// GetOrLoad returns the memoized value for key, invoking load at most once
// across all concurrent callers for that key.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.RLock()
	if r, ok := c.results[key]; ok {
		c.mu.RUnlock()
		return r.value, r.err
	}
	c.mu.RUnlock()

	// singleflight keys are strings; callers supply comparable keys, so we
	// rely on the fact that at most one goroutine per distinct key wins the
	// map-write race below, and the rest block on the shared flight below.
	flightKey := fmtKey(key)
	v, err, _ := c.group.Do(flightKey, func() (any, error) {
		c.mu.RLock()
		if r, ok := c.results[key]; ok {
			c.mu.RUnlock()
			return r.value, r.err
		}
		c.mu.RUnlock()

		value, loadErr := load()

		c.mu.Lock()
		c.results[key] = result[V]{value: value, err: loadErr}
		c.mu.Unlock()

		return value, loadErr
	})
	return v.(V), err
}

// Peek returns the memoized value for key without triggering a load.
func (c *Cache[K, V]) Peek(key K) (V, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[key]
	return r.value, r.err, ok
}

// Invalidate drops the memoized entry for key, if any, so the next
// GetOrLoad call re-runs the loader. Used when a caller learns a cached
// negative result (e.g. a stale git lookup) should be retried against a
// refreshed source.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, key)
}

// CacheSingle is a process-wide lazy value: load runs exactly once, on the
// first caller, regardless of concurrent access. Mirrors the once-cell used
// for the default builtin baseline and similar process-global values.
type CacheSingle[T any] struct {
	once  sync.Once
	value T
	err   error
}

// Get returns the memoized value, invoking load on the first call only.
func (c *CacheSingle[T]) Get(load func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.value, c.err = load()
	})
	return c.value, c.err
}

// fmtKey renders a comparable key as a singleflight key. Most callers in
// this package use string keys directly; this indirection only matters for
// non-string key types such as VersionSpec, which implement fmt.Stringer.
func fmtKey[K comparable](key K) string {
	if s, ok := any(key).(string); ok {
		return s
	}
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(key)
}
