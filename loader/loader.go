// Package loader maps the string references used in configuration to the
// functions that build datasets.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/krisalay/dataset-host/types"
)

var (
	ErrDuplicateRef    = errors.New("loader: reference already registered")
	ErrMissingArgument = errors.New("loader: missing argument")
	ErrBadArgument     = errors.New("loader: bad argument")
)

// Func builds one dataset from the positional and keyword arguments of its descriptor.
type Func func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

/*
Registry is the table configuration resolves loader references against.
It is filled at startup and read concurrently afterwards.
*/
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register adds fn under ref. A ref can only be registered once.
func (r *Registry) Register(ref string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.funcs[ref]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRef, ref)
	}
	r.funcs[ref] = fn
	return nil
}

func (r *Registry) MustRegister(ref string, fn Func) {
	if err := r.Register(ref, fn); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(ref string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[ref]
	return fn, ok
}

// Refs returns every registered reference, sorted.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.funcs))
	for ref := range r.funcs {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Bind fixes a Func's arguments, giving the cache a loader it can call on every reload.
func Bind(fn Func, args []any, kwargs map[string]any) types.Loader {
	return types.LoaderFunc(func(ctx context.Context) (any, error) {
		return fn(ctx, args, kwargs)
	})
}

// Builtin returns a registry holding every loader shipped with the host.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister("examples.simple", Simple)
	r.MustRegister("examples.kwargs", Kwargs)
	r.MustRegister("files.csv", CSV)
	r.MustRegister("files.json", JSONFile)
	r.MustRegister("sqlite.query", SQLiteQuery)
	r.MustRegister("postgres.query", PostgresQuery)
	r.MustRegister("redis.json", RedisJSON)
	return r
}
