package cache

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/dataset-host/api"
	"github.com/krisalay/dataset-host/engine"
	"github.com/krisalay/dataset-host/shard"
	"github.com/krisalay/dataset-host/types"
)

// ErrNotFound is returned by Resolve for ids the engine's Source does not know.
var ErrNotFound = errors.New("cache: dataset not found")

/*
DatasetCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards (where entries live)
- the engine (descriptor lookup, expiration, loading, metrics)
- singleflight (one load per id at a time)
*/
type DatasetCache struct {
	// shards are the storage units. Each shard has its own write lock.
	shards []*shard.Shard

	// engine contains the "rules": which ids exist, when they expire, how they load.
	engine *engine.CacheEngine

	// selector decides which shard an id goes to.
	selector shard.Selector

	// sf makes concurrent resolves of the same missing or stale id share one load.
	sf singleflight.Group
}

var _ api.Cache = (*DatasetCache)(nil)

func NewDatasetCache(shards int, engine *engine.CacheEngine) *DatasetCache {
	if shards < 1 {
		shards = 1
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard()
	}

	return &DatasetCache{
		shards:   s,
		engine:   engine,
		selector: shard.HashSelector{},
	}
}

/*
Resolve returns the dataset value for id, loading or reloading it as needed.
*/
func (c *DatasetCache) Resolve(ctx context.Context, id string) (any, error) {
	b, ok := c.engine.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	sh := c.selector.Select(id, c.shards)

	if ent, ok := sh.Store.Get(id); ok {
		if !c.engine.IsExpired(b, ent) {
			c.engine.Metrics.Hit(id)
			return ent.Value, nil
		}
		c.engine.Metrics.Expire(id)
	} else {
		c.engine.Metrics.Miss(id)
	}

	/*
		singleflight ensures that:
		- If 100 requests hit the same cold or stale dataset,
		  only ONE of them runs the loader.
		- Others wait and receive the same value or the same error.
	*/
	v, err, _ := c.sf.Do(id, func() (any, error) {
		return c.load(ctx, id, b, sh)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Entry).Value, nil
}

// load runs inside the flight for id. Only flights write entries, and there is
// at most one flight per id, so the read-check-write below cannot interleave.
func (c *DatasetCache) load(ctx context.Context, id string, b engine.Binding, sh *shard.Shard) (*types.Entry, error) {
	// A flight that finished between our check and Do may already have refreshed it.
	prev, had := sh.Store.Get(id)
	if had && !c.engine.IsExpired(b, prev) {
		return prev, nil
	}

	log := c.engine.Log.WithField("dataset", id)

	// The load is shared, so one caller giving up must not cancel it for the rest.
	ent, err := c.engine.Load(context.WithoutCancel(ctx), id, b)
	if err != nil {
		if had {
			c.engine.Metrics.LoadFailed(id, true)
			log.WithError(err).Warn("reloading dataset failed, serving previous value")
			return prev, nil
		}
		c.engine.Metrics.LoadFailed(id, false)
		log.WithError(err).Error("loading dataset failed")
		return nil, fmt.Errorf("cache: load %s: %w", id, err)
	}

	sh.WriteMu.Lock()
	sh.Store.Put(id, ent)
	sh.WriteMu.Unlock()

	return ent, nil
}

/*
Entry returns a copy of the stored entry for id, if any. It never loads.
*/
func (c *DatasetCache) Entry(id string) (types.Entry, bool) {
	ent, ok := c.selector.Select(id, c.shards).Store.Get(id)
	if !ok {
		return types.Entry{}, false
	}
	return *ent, true
}

/*
Len returns the number of loaded datasets across all shards.
*/
func (c *DatasetCache) Len() int {
	var n int64
	for _, sh := range c.shards {
		n += sh.Store.Size()
	}
	return int(n)
}

/*
Preload resolves id once and discards the value. The registry uses it for
eager initial loads.
*/
func (c *DatasetCache) Preload(ctx context.Context, id string) error {
	_, err := c.Resolve(ctx, id)
	return err
}
