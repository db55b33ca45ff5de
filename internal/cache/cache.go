// Package cache memoizes asynchronous lookups keyed by their arguments.
package cache

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/HaiFongPan/r2drive/internal/metrics"
)

// Lookup is the wrapped call. Arguments are string ids; "" stands for none.
type Lookup[T any] func(ctx context.Context, args ...string) (T, error)

// Keyed caches the results of one lookup function.
// Entries live until revalidated or cleared; there is no TTL or size bound.
// Concurrent misses on the same key share a single lookup.
type Keyed[T any] struct {
	name   string
	lookup Lookup[T]

	mu          sync.Mutex
	entries     map[string]T
	generations map[string]uint64
	inflight    map[string]int
	epoch       uint64

	group singleflight.Group
}

// New creates a keyed cache around lookup. name labels metrics and logs.
func New[T any](name string, lookup Lookup[T]) *Keyed[T] {
	return &Keyed[T]{
		name:        name,
		lookup:      lookup,
		entries:     make(map[string]T),
		generations: make(map[string]uint64),
		inflight:    make(map[string]int),
	}
}

// Key joins the arguments into the cache key
func Key(args ...string) string {
	return strings.Join(args, "-")
}

// Execute returns the cached value for args, invoking the lookup on a miss.
// Failed lookups are returned to the caller and not stored.
func (c *Keyed[T]) Execute(ctx context.Context, args ...string) (T, error) {
	key := Key(args...)

	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		metrics.RecordCacheHit(c.name)
		return v, nil
	}
	gen := c.generation(key)
	c.inflight[key]++
	c.mu.Unlock()

	metrics.RecordCacheMiss(c.name)
	logrus.Debugf("cache %s: miss for key %q", c.name, key)

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		res, err := c.lookup(ctx, args...)
		if err != nil {
			return res, err
		}

		c.mu.Lock()
		// a revalidate while the lookup was in flight makes this result stale
		if c.generation(key) == gen {
			c.entries[key] = res
		}
		c.mu.Unlock()
		return res, nil
	})

	c.mu.Lock()
	c.inflight[key]--
	if c.inflight[key] <= 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	if shared {
		logrus.Debugf("cache %s: shared in-flight lookup for key %q", c.name, key)
	}

	res, _ := v.(T)
	return res, err
}

// Revalidate drops the entry for args so the next Execute recomputes it
func (c *Keyed[T]) Revalidate(args ...string) {
	key := Key(args...)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.generations[key]++
	c.group.Forget(key)
}

// Clear empties the whole cache
func (c *Keyed[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.group.Forget(key)
	}
	// 进行中的查询也要丢弃，之后的 Execute 重新计算
	for key := range c.inflight {
		c.group.Forget(key)
	}
	c.entries = make(map[string]T)
	c.generations = make(map[string]uint64)
	c.epoch++
}

// Has reports whether a value is cached for args
func (c *Keyed[T]) Has(args ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[Key(args...)]
	return ok
}

// Len returns the number of cached entries
func (c *Keyed[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// generation must be called with mu held
func (c *Keyed[T]) generation(key string) uint64 {
	return c.epoch<<32 | c.generations[key]
}
