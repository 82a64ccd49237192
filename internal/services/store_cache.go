package services

import (
	"context"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// CachedStore keeps recent table reads in front of a slow store such as
// Google Sheets. Writes go straight through and drop the cached copy.
type CachedStore struct {
	next  ports.TableStore
	cache cache.Cache[[]core.Row]

	// gen counts writes per table; a read only fills the cache if no
	// write finished while it was in flight.
	mu    sync.Mutex
	gen   map[string]uint64
	epoch uint64
}

var _ ports.TableStore = (*CachedStore)(nil)

// NewCachedStore caches up to one entry per table for ttl. The returned
// LRU can be registered with a cache.Manager for cleanup.
func NewCachedStore(next ports.TableStore, ttl time.Duration) (*CachedStore, *cache.LRUCache[[]core.Row]) {
	lru := cache.NewLRUCache[[]core.Row](len(core.Tables()), ttl)
	return &CachedStore{next: next, cache: lru, gen: make(map[string]uint64)}, lru
}

func (c *CachedStore) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	if rows, ok := c.cache.Get(name); ok {
		return core.CloneRows(rows), nil
	}
	c.mu.Lock()
	gen, epoch := c.gen[name], c.epoch
	c.mu.Unlock()

	rows, err := c.next.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen[name] == gen && c.epoch == epoch {
		c.cache.Set(name, core.CloneRows(rows))
	}
	c.mu.Unlock()
	return rows, nil
}

// WriteTable invalidates the table even when the write fails.
func (c *CachedStore) WriteTable(ctx context.Context, name string, rows []core.Row) error {
	defer func() {
		c.mu.Lock()
		c.gen[name]++
		c.cache.Delete(name)
		c.mu.Unlock()
	}()
	return c.next.WriteTable(ctx, name, rows)
}

// Invalidate drops every cached table.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	c.epoch++
	c.cache.Purge()
	c.mu.Unlock()
}
