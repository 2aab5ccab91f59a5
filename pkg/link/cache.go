package link

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
)

type cacheKey struct {
	spec *spec.Specification
	typ  reflect.Type
}

type cacheEntry struct {
	once sync.Once
	link *Link
	err  error
}

// Cache memoizes links per (specification, type) pair with at most one
// creation per pair, failures included.
type Cache struct {
	entries   sync.Map // map[cacheKey]*cacheEntry
	creations atomic.Int64
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(s *spec.Specification, t reflect.Type) (*Link, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := cacheKey{spec: s, typ: t}

	var e *cacheEntry
	if v, ok := c.entries.Load(key); ok {
		e = v.(*cacheEntry)
	} else {
		v, _ := c.entries.LoadOrStore(key, &cacheEntry{})
		e = v.(*cacheEntry)
	}

	e.once.Do(func() {
		c.creations.Add(1)
		e.link, e.err = Create(s, t)
	})
	return e.link, e.err
}

func (c *Cache) Creations() int64 {
	return c.creations.Load()
}

// For returns the derived specification and link for T from the two caches.
func For[T any](links *Cache, specs *spec.Cache) (*spec.Specification, *Link, error) {
	t := serializer.TypeOf[T]()
	s, err := specs.Get(t)
	if err != nil {
		return nil, nil, err
	}
	l, err := links.Get(s, t)
	if err != nil {
		return nil, nil, err
	}
	return s, l, nil
}
