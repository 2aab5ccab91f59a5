package spec

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Sokol111/tagdata/pkg/serializer"
)

// Cache memoizes derived specifications per type. Concurrent first requests
// for the same type derive it exactly once; failures are memoized as well.
type Cache struct {
	reg       *serializer.Registry
	entries   sync.Map // map[reflect.Type]*cacheEntry
	creations atomic.Int64
}

type cacheEntry struct {
	once sync.Once
	spec *Specification
	err  error
}

func NewCache(reg *serializer.Registry) *Cache {
	return &Cache{reg: reg}
}

// Get returns the specification derived for t.
func (c *Cache) Get(t reflect.Type) (*Specification, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	e := c.entry(t)
	e.once.Do(func() {
		c.creations.Add(1)
		e.spec, e.err = Derive(t, c.reg)
	})
	return e.spec, e.err
}

func (c *Cache) entry(t reflect.Type) *cacheEntry {
	if e, ok := c.entries.Load(t); ok {
		return e.(*cacheEntry)
	}
	actual, _ := c.entries.LoadOrStore(t, &cacheEntry{})
	return actual.(*cacheEntry)
}

// Creations reports how many derivations the cache has run.
func (c *Cache) Creations() int64 {
	return c.creations.Load()
}

// For returns the cached specification for T.
func For[T any](c *Cache) (*Specification, error) {
	return c.Get(serializer.TypeOf[T]())
}
