// Package cache keeps forward (entity -> values) lookups for attributes a
// connection has registered for caching.
package cache

import (
	"slices"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/metrics"
)

// DefaultMaxEntries bounds the number of cached (entity, attribute) pairs.
const DefaultMaxEntries = 4096

type key struct {
	e core.Causetid
	a core.Causetid
}

// AttributeCache is safe for concurrent use.
type AttributeCache struct {
	lock       sync.Mutex
	registered map[core.Causetid]bool
	forward    *lru.Cache
	back       map[core.Causetid]map[core.Causetid]bool
	metrics    *metrics.Metrics
}

// New creates a cache holding at most maxEntries (entity, attribute) pairs.
// maxEntries <= 0 uses DefaultMaxEntries. m may be nil.
func New(maxEntries int, m *metrics.Metrics) *AttributeCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &AttributeCache{
		registered: make(map[core.Causetid]bool),
		back:       make(map[core.Causetid]map[core.Causetid]bool),
		metrics:    m,
	}
	c.forward = lru.New(maxEntries)
	c.forward.OnEvicted = c.evicted
	return c
}

// evicted keeps the per-attribute index in step with the lru. It runs
// while the lru is being modified, so the lock is already held.
func (c *AttributeCache) evicted(ikey lru.Key, _ interface{}) {
	k := ikey.(key)
	entities := c.back[k.a]
	delete(entities, k.e)
	if len(entities) == 0 {
		delete(c.back, k.a)
	}
}

// Register starts caching attribute a.
func (c *AttributeCache) Register(a core.Causetid) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.registered[a] = true
}

// Deregister stops caching a and drops its entries.
func (c *AttributeCache) Deregister(a core.Causetid) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.registered, a)
	c.dropAttribute(a)
}

// IsRegistered reports whether a is cached.
func (c *AttributeCache) IsRegistered(a core.Causetid) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.registered[a]
}

// Registered returns the cached attributes in ascending order.
func (c *AttributeCache) Registered() []core.Causetid {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]core.Causetid, 0, len(c.registered))
	for a := range c.registered {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// Get returns the cached values of (e, a).
func (c *AttributeCache) Get(e, a core.Causetid) ([]core.TypedValue, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if v, ok := c.forward.Get(key{e, a}); ok {
		c.metrics.CacheHit()
		return slices.Clone(v.([]core.TypedValue)), true
	}
	c.metrics.CacheMiss()
	return nil, false
}

// Put caches the values of (e, a). Unregistered attributes are ignored.
func (c *AttributeCache) Put(e, a core.Causetid, values []core.TypedValue) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.registered[a] {
		return
	}
	k := key{e, a}
	c.forward.Remove(k)
	c.forward.Add(k, slices.Clone(values))
	if entities, ok := c.back[a]; ok {
		entities[e] = true
	} else {
		c.back[a] = map[core.Causetid]bool{e: true}
	}
}

// Invalidate drops every entry a committed transaction touched.
func (c *AttributeCache) Invalidate(datoms []core.Datom) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, d := range datoms {
		if c.registered[d.A] {
			c.forward.Remove(key{d.E, d.A})
		}
	}
}

// Clear drops every entry but keeps the registrations.
func (c *AttributeCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.forward.Clear()
	c.back = make(map[core.Causetid]map[core.Causetid]bool)
}

// Len returns the number of cached (entity, attribute) pairs.
func (c *AttributeCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.forward.Len()
}

func (c *AttributeCache) dropAttribute(a core.Causetid) {
	for e := range c.back[a] {
		c.forward.Remove(key{e, a})
	}
	delete(c.back, a)
}
