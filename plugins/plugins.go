// Package plugins builds host plugins from plugin descriptors.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/host"
	"github.com/krisalay/dataset-host/loader"
	"github.com/krisalay/dataset-host/types"
)

var ErrUnknownPlugin = errors.New("plugins: unknown plugin module")

// Env carries the process-wide collaborators plugins may need.
type Env struct {
	Logger  logrus.FieldLogger
	Metrics types.Metrics
	Clock   types.Clock
	Loaders *loader.Registry

	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Factory builds a plugin from its descriptor.
type Factory func(ctx context.Context, d descriptor.Plugin, env Env) (host.Plugin, error)

type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Builtin knows the dconfig and data_points modules.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(DatasetsConfigModule, newDatasetsConfig)
	r.Register(DataPointsModule, newDataPoints)
	return r
}

// Register adds or replaces the factory for module.
func (r *Registry) Register(module string, f Factory) {
	r.factories[module] = f
}

func (r *Registry) Modules() []string {
	out := make([]string, 0, len(r.factories))
	for m := range r.factories {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Build runs the factory named by d.Module.
func (r *Registry) Build(ctx context.Context, d descriptor.NamedPlugin, env Env) (host.Plugin, error) {
	f, ok := r.factories[d.Module]
	if !ok {
		return nil, fmt.Errorf("%w: plugins_config.%s: %q", ErrUnknownPlugin, d.Name, d.Module)
	}
	p, err := f(ctx, d.Plugin, env)
	if err != nil {
		return nil, fmt.Errorf("plugins_config.%s: %w", d.Name, err)
	}
	return p, nil
}

// BuildAll builds every plugin of set in order. The first failure stops it.
func (r *Registry) BuildAll(ctx context.Context, set descriptor.PluginSet, env Env) ([]host.Plugin, error) {
	out := make([]host.Plugin, 0, len(set))
	for _, d := range set {
		p, err := r.Build(ctx, d, env)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
