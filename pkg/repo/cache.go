package repo

import (
	"sync"

	"github.com/odvcencio/gitobj/pkg/object"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// Cache keeps the verified (type, payload) of objects read through a Repo.
// It caches bytes rather than objects so every Find still hands out its own
// instance. Concurrent misses for one hash share a single store read, and a
// second population of the same hash keeps the first entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[object.Hash]cachedObject
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

type cachedObject struct {
	typ     object.ObjectType
	payload []byte
}

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[object.Hash]cachedObject)}
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}

// Forget drops h from the cache.
func (c *Cache) Forget(h object.Hash) {
	c.mu.Lock()
	delete(c.entries, h)
	c.mu.Unlock()
}

func (c *Cache) lookup(h object.Hash) (cachedObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	co, ok := c.entries[h]
	return co, ok
}

// load returns the cached object for h, calling read on a miss.
func (c *Cache) load(h object.Hash, read func() (object.ObjectType, []byte, error)) (object.ObjectType, []byte, error) {
	if co, ok := c.lookup(h); ok {
		c.hits.Inc()
		return co.typ, co.payload, nil
	}
	c.misses.Inc()

	v, err, _ := c.group.Do(string(h), func() (any, error) {
		if co, ok := c.lookup(h); ok {
			return co, nil
		}
		typ, payload, err := read()
		if err != nil {
			return nil, err
		}
		co := cachedObject{typ: typ, payload: payload}
		c.mu.Lock()
		if existing, ok := c.entries[h]; ok {
			co = existing
		} else {
			c.entries[h] = co
		}
		c.mu.Unlock()
		return co, nil
	})
	if err != nil {
		return "", nil, err
	}
	co := v.(cachedObject)
	return co.typ, co.payload, nil
}
