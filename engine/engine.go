package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/dataset-host/expiration"
	"github.com/krisalay/dataset-host/types"
)

// ErrNilValue is returned when a loader succeeds without producing a value.
var ErrNilValue = errors.New("engine: loader returned a nil value")

// Binding is everything the cache needs to know about one dataset id.
type Binding struct {
	Loader     types.Loader
	Expiration expiration.Strategy
}

// Source resolves dataset ids to their bindings. The registry implements it.
type Source interface {
	Lookup(id string) (Binding, bool)
}

/*
CacheEngine is the "brain" of the dataset cache.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- Which ids exist at all
- When an entry is stale
- How a dataset is loaded and timed
- How events are recorded and logged

It does NOT:
- Store entries
- Handle sharding
- Coordinate concurrent loads
*/
type CacheEngine struct {

	// Source maps ids to loaders and expiration strategies.
	Source Source

	// Clock provides "now" for age checks and load timestamps.
	Clock types.Clock

	// Metrics records hits, misses, expirations and loads.
	Metrics types.Metrics

	// Log receives load failures and load timings.
	Log logrus.FieldLogger
}

/*
NewCacheEngine creates a CacheEngine. Nil clock, metrics and logger fall back to
the system clock, NoopMetrics and the logrus standard logger.
*/
func NewCacheEngine(
	src Source,
	clock types.Clock,
	metrics types.Metrics,
	log logrus.FieldLogger,
) *CacheEngine {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &CacheEngine{
		Source:  src,
		Clock:   clock,
		Metrics: metrics,
		Log:     log,
	}
}

// Lookup returns the binding for id, or false if the id is unknown.
func (e *CacheEngine) Lookup(id string) (Binding, bool) {
	return e.Source.Lookup(id)
}

/*
IsExpired checks whether a cache entry has to be reloaded.
Bindings without a strategy never expire.
*/
func (e *CacheEngine) IsExpired(b Binding, ent *types.Entry) bool {
	return b.Expiration != nil &&
		b.Expiration.IsExpired(ent, e.Clock.Now())
}

/*
Load runs the dataset's loader once and returns the entry to store.
The entry's LoadedAt is the instant the load started.
On failure nothing is returned and the caller decides whether a stale entry survives.
A loader that panics or returns a nil value has failed.
*/
func (e *CacheEngine) Load(ctx context.Context, id string, b Binding) (*types.Entry, error) {
	log := e.Log.WithField("dataset", id)

	started := e.Clock.Now()
	log.Info("loading dataset")

	value, err := runLoader(ctx, b.Loader)
	elapsed := e.Clock.Now().Sub(started)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNilValue
	}

	if elapsed < 0 {
		elapsed = 0
	}
	e.Metrics.Loaded(id, elapsed, started)
	log.WithField("elapsed", elapsed.Round(time.Millisecond)).Debug("dataset loaded")

	return &types.Entry{ID: id, Value: value, LoadedAt: started}, nil
}

func runLoader(ctx context.Context, l types.Loader) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	return l.Load(ctx)
}
