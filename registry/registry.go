// Package registry exposes the dataset cache to the host: the list of known
// dataset ids and id → loaded dataset.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	cache "github.com/krisalay/dataset-host"
	"github.com/krisalay/dataset-host/config"
	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/engine"
	"github.com/krisalay/dataset-host/loader"
	"github.com/krisalay/dataset-host/types"
)

// EnvConfigFile names the environment variable holding an optional secondary descriptor file.
const EnvConfigFile = "XPUBDC_CONFIG_FILE"

var ErrNotFound = errors.New("registry: dataset not found")

type Options struct {
	// Datasets are applied on top of the descriptors read from files.
	Datasets *descriptor.Set

	// File is a secondary descriptor file. It must exist when set.
	File string

	// Loaders resolves loader references. Defaults to loader.Builtin().
	Loaders *loader.Registry

	Logger  logrus.FieldLogger
	Metrics types.Metrics
	Clock   types.Clock

	// Shards is the cache shard count. Defaults to 8.
	Shards int

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

/*
Registry owns the merged descriptor set and the cache of loaded datasets.
The descriptor set does not change after New returns.
*/
type Registry struct {
	set      *descriptor.Set
	bindings map[string]engine.Binding
	cache    *cache.DatasetCache
	log      logrus.FieldLogger
}

var _ engine.Source = (*Registry)(nil)

/*
New merges descriptors and loads every dataset not marked skip_initial_load.

Merge order:
 1. the file named by XPUBDC_CONFIG_FILE, if it exists
 2. Options.File
 3. Options.Datasets

A later descriptor replaces an earlier one with the same id. A file that
cannot be parsed, or a loader reference that cannot be resolved, fails New.
A failed initial load is only logged.
*/
func New(ctx context.Context, opts Options) (*Registry, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "registry")

	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	loaders := opts.Loaders
	if loaders == nil {
		loaders = loader.Builtin()
	}
	shards := opts.Shards
	if shards <= 0 {
		shards = 8
	}

	set := descriptor.NewSet()

	if path := getenv(EnvConfigFile); path != "" {
		if _, err := os.Stat(path); err != nil {
			log.WithError(err).WithField("file", path).Warn("datasets config file not found, skipping")
		} else {
			fromFile, err := config.ReadDatasetsFile(path)
			if err != nil {
				return nil, err
			}
			set.Merge(fromFile)
		}
	}

	if opts.File != "" {
		fromFile, err := config.ReadDatasetsFile(opts.File)
		if err != nil {
			return nil, err
		}
		set.Merge(fromFile)
	}

	set.Merge(opts.Datasets)

	if err := set.Resolve(loaders); err != nil {
		return nil, err
	}

	r := &Registry{
		set:      set,
		bindings: make(map[string]engine.Binding, set.Len()),
		log:      log,
	}
	for _, d := range set.All() {
		r.bindings[d.ID] = engine.Binding{
			Loader:     d.Load(),
			Expiration: d.Expiration(),
		}
	}

	eng := engine.NewCacheEngine(r, opts.Clock, opts.Metrics, log)
	r.cache = cache.NewDatasetCache(shards, eng)

	for _, d := range set.All() {
		if d.SkipInitialLoad {
			continue
		}
		log.WithField("dataset", d.ID).Info("loading dataset (initial)")
		if err := r.cache.Preload(ctx, d.ID); err != nil {
			log.WithError(err).WithField("dataset", d.ID).Error("initial load failed")
		}
	}

	return r, nil
}

// ListIDs returns every dataset id in merge order.
func (r *Registry) ListIDs() []string {
	return r.set.IDs()
}

// Resolve returns the loaded dataset for id. Unknown ids return ErrNotFound
// without touching the cache.
func (r *Registry) Resolve(ctx context.Context, id string) (any, error) {
	if _, ok := r.bindings[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.cache.Resolve(ctx, id)
}

func (r *Registry) Descriptor(id string) (*descriptor.Dataset, bool) {
	return r.set.Get(id)
}

// Entry returns the cached entry for id without loading.
func (r *Registry) Entry(id string) (types.Entry, bool) {
	return r.cache.Entry(id)
}

// Lookup implements engine.Source.
func (r *Registry) Lookup(id string) (engine.Binding, bool) {
	b, ok := r.bindings[id]
	return b, ok
}
