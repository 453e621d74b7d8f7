package plugins

import (
	"context"
	"errors"

	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/host"
	"github.com/krisalay/dataset-host/registry"
)

const DatasetsConfigModule = "dconfig"

/*
DatasetsConfig serves the datasets of one registry to the host.

kwargs:
  - name: plugin name, default "dconfig"
  - datasets_config: id → dataset descriptor
  - datasets_config_file: secondary descriptor file
*/
type DatasetsConfig struct {
	name     string
	registry *registry.Registry
}

var _ host.DatasetProvider = (*DatasetsConfig)(nil)

type datasetsConfigKwargs struct {
	Name     string         `yaml:"name"`
	Datasets descriptor.Set `yaml:"datasets_config"`
	File     string         `yaml:"datasets_config_file"`
}

func newDatasetsConfig(ctx context.Context, d descriptor.Plugin, env Env) (host.Plugin, error) {
	kw := datasetsConfigKwargs{}
	if err := d.DecodeKwargs(&kw); err != nil {
		return nil, err
	}
	if kw.Name == "" {
		kw.Name = DatasetsConfigModule
	}
	return NewDatasetsConfig(ctx, kw.Name, &kw.Datasets, kw.File, env)
}

// NewDatasetsConfig builds the registry and runs its initial loads.
func NewDatasetsConfig(ctx context.Context, name string, datasets *descriptor.Set, file string, env Env) (*DatasetsConfig, error) {
	logger := env.Logger
	if logger != nil {
		logger = logger.WithField("plugin", name)
	}
	reg, err := registry.New(ctx, registry.Options{
		Datasets: datasets,
		File:     file,
		Loaders:  env.Loaders,
		Logger:   logger,
		Metrics:  env.Metrics,
		Clock:    env.Clock,
		Getenv:   env.Getenv,
	})
	if err != nil {
		return nil, err
	}
	return &DatasetsConfig{name: name, registry: reg}, nil
}

func (p *DatasetsConfig) Name() string { return p.name }

func (p *DatasetsConfig) Registry() *registry.Registry { return p.registry }

func (p *DatasetsConfig) GetDatasets(context.Context) []string {
	return p.registry.ListIDs()
}

// GetDataset returns (nil, nil) for ids this plugin does not serve.
func (p *DatasetsConfig) GetDataset(ctx context.Context, id string) (any, error) {
	v, err := p.registry.Resolve(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
