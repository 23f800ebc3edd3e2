package stmtcache

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pg-sharding/widecol/pkg/restrictions"
	"github.com/pg-sharding/widecol/pkg/wclog"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// PrepareFunc prepares the restrictions of a statement on a cache miss.
type PrepareFunc func() (*restrictions.Prepared, error)

type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// Cache keeps prepared restrictions by statement id. Concurrent misses on
// the same id prepare the statement once.
type Cache struct {
	prepared sync.Map
	group    singleflight.Group

	// guards epoch, versions and stores into prepared
	mu       sync.Mutex
	epoch    uint64
	versions map[string]uint64

	hits    *atomic.Uint64
	misses  *atomic.Uint64
	entries *atomic.Int64

	tracing bool
}

func New(tracing bool) *Cache {
	return &Cache{
		hits:    atomic.NewUint64(0),
		misses:  atomic.NewUint64(0),
		entries: atomic.NewInt64(0),
		tracing: tracing,

		versions: map[string]uint64{},
	}
}

// generation identifies the invalidation state a preparation started from.
type generation struct {
	epoch   uint64
	version uint64
}

func (c *Cache) generation(id string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()

	return generation{epoch: c.epoch, version: c.versions[id]}
}

// store caches p unless id was invalidated while p was being prepared.
func (c *Cache) store(id string, gen generation, p *restrictions.Prepared) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != (generation{epoch: c.epoch, version: c.versions[id]}) {
		wclog.Zero.Debug().
			Str("statement", id).
			Msg("stmtcache: statement invalidated during preparation, not caching")
		return
	}
	if _, loaded := c.prepared.LoadOrStore(id, p); !loaded {
		c.entries.Inc()
	}
}

func (c *Cache) GetOrPrepare(ctx context.Context, id string, prepare PrepareFunc) (*restrictions.Prepared, error) {
	if v, ok := c.prepared.Load(id); ok {
		c.hits.Inc()
		return v.(*restrictions.Prepared), nil
	}

	v, err, shared := c.group.Do(id, func() (any, error) {
		if v, ok := c.prepared.Load(id); ok {
			return v, nil
		}
		c.misses.Inc()

		if c.tracing {
			span, _ := opentracing.StartSpanFromContext(ctx, "prepare restrictions")
			defer span.Finish()
			span.SetTag("statement", id)
		}

		gen := c.generation(id)
		p, err := prepare()
		if err != nil {
			return nil, err
		}
		c.store(id, gen, p)
		return p, nil
	})
	if err != nil {
		wclog.Zero.Debug().
			Str("statement", id).
			Err(err).
			Msg("stmtcache: failed to prepare statement")
		return nil, err
	}

	wclog.Zero.Debug().
		Str("statement", id).
		Bool("shared", shared).
		Msg("stmtcache: prepared statement")
	return v.(*restrictions.Prepared), nil
}

// Invalidate drops one statement, e.g. after its table or indexes changed.
// A preparation of id already running is returned to its callers but not
// cached.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	c.versions[id]++
	if _, loaded := c.prepared.LoadAndDelete(id); loaded {
		c.entries.Dec()
	}
	c.mu.Unlock()

	c.group.Forget(id)
}

func (c *Cache) InvalidateAll() {
	var ids []string

	c.mu.Lock()
	c.epoch++
	c.versions = map[string]uint64{}
	c.prepared.Range(func(key, _ any) bool {
		c.prepared.Delete(key)
		c.entries.Dec()
		ids = append(ids, key.(string))
		return true
	})
	c.mu.Unlock()

	for _, id := range ids {
		c.group.Forget(id)
	}
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: int(c.entries.Load()),
	}
}
