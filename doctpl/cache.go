package doctpl

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes successful loads of an underlying Loader. Concurrent loads of
// the same identifier share one call; failures are not cached.
type Cache struct {
	loader Loader
	group  singleflight.Group

	mu    sync.RWMutex
	specs map[string]*Spec

	observe func(hit bool)
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLookupObserver calls fn on every Load with whether the spec was
// already cached.
func WithLookupObserver(fn func(hit bool)) CacheOption {
	return func(c *Cache) { c.observe = fn }
}

var _ Loader = (*Cache)(nil)

// NewCache wraps loader.
func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:  loader,
		specs:   make(map[string]*Spec),
		observe: func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached Spec for id, loading it once if needed. A shared
// load is not cancelled by any one caller; each caller stops waiting when its
// own ctx is done.
func (c *Cache) Load(ctx context.Context, id string) (*Spec, error) {
	if spec, ok := c.lookup(id); ok {
		c.observe(true)
		return spec, nil
	}
	c.observe(false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		if spec, ok := c.lookup(id); ok {
			return spec, nil
		}
		spec, err := c.loader.Load(loadCtx, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.specs[id]; ok {
			return existing, nil
		}
		c.specs[id] = spec
		return spec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Spec), nil
	}
}

// List delegates to the underlying Loader.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	return c.loader.List(ctx)
}

// Invalidate drops id from the cache so the next Load reads it again.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.specs, id)
	c.mu.Unlock()
}

func (c *Cache) lookup(id string) (*Spec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[id]
	return spec, ok
}
