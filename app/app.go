// Package app assembles the hosting shell: configuration, logging, metrics,
// health, the host and its plugins, and the serve loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/dataset-host/config"
	"github.com/krisalay/dataset-host/health"
	"github.com/krisalay/dataset-host/host"
	"github.com/krisalay/dataset-host/loader"
	"github.com/krisalay/dataset-host/logger"
	"github.com/krisalay/dataset-host/metrics"
	"github.com/krisalay/dataset-host/plugins"
	"github.com/krisalay/dataset-host/registry"
	"github.com/krisalay/dataset-host/types"
	"github.com/krisalay/dataset-host/watch"
)

// DatasetsConfigPlugin names the plugin serving the top-level datasets_config.
const DatasetsConfigPlugin = "datasets_config"

type Options struct {
	// ConfigFile is the -c file. It must exist when set.
	ConfigFile string

	Overrides map[string]any

	// Environ defaults to os.Environ().
	Environ []string

	// Loaders defaults to loader.Builtin().
	Loaders *loader.Registry

	// Plugins defaults to plugins.Builtin().
	Plugins *plugins.Registry

	// LogOutput defaults to os.Stderr.
	LogOutput io.Writer
}

type App struct {
	Config *config.Config
	Log    *logrus.Logger
	Rest   *host.Rest

	// Metrics is nil when disable_metrics is set.
	Metrics *metrics.Metrics
}

/*
Setup loads the configuration and builds the host. Every configuration
problem is returned: an unknown loader, an unknown plugin module, or a plugin
that fails to build.
*/
func Setup(ctx context.Context, opts Options) (*App, error) {
	loaders := opts.Loaders
	if loaders == nil {
		loaders = loader.Builtin()
	}
	factories := opts.Plugins
	if factories == nil {
		factories = plugins.Builtin()
	}

	cfg, err := config.Load(config.Options{
		File:      opts.ConfigFile,
		Overrides: opts.Overrides,
		Environ:   opts.Environ,
		Loaders:   loaders,
	})
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Out:    opts.LogOutput,
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Log: log}

	hopts := host.Options{Logger: log}
	if !cfg.DisableHealth {
		hopts.Setup = append(hopts.Setup, health.Register)
	}

	// A nil *metrics.Metrics must not reach the cache as a non-nil interface.
	var cacheMetrics types.Metrics
	if !cfg.DisableMetrics {
		a.Metrics = metrics.New(metrics.Options{
			Prefix:      cfg.MetricsPrefixName,
			AppName:     cfg.MetricsAppName,
			Environment: cfg.MetricsEnvironment,
		})
		cacheMetrics = a.Metrics
		hopts.Setup = append(hopts.Setup, a.Metrics.Register)
		hopts.Middleware = append(hopts.Middleware, a.Metrics.Middleware())
	}

	a.Rest = host.New(hopts)

	if cfg.PluginsLoadDefaults {
		for _, p := range host.DefaultPlugins() {
			if err := a.Rest.RegisterPlugin(p, false); err != nil {
				return nil, err
			}
		}
	}

	getenv := getenvFrom(opts.Environ)
	env := plugins.Env{
		Logger:  log,
		Metrics: cacheMetrics,
		Loaders: loaders,
		Getenv:  getenv,
	}

	if cfg.Datasets.Len() > 0 || getenv(registry.EnvConfigFile) != "" {
		dc, err := plugins.NewDatasetsConfig(ctx, DatasetsConfigPlugin, &cfg.Datasets, "", env)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", DatasetsConfigPlugin, err)
		}
		if err := a.Rest.RegisterPlugin(dc, true); err != nil {
			return nil, err
		}
	}

	built, err := factories.BuildAll(ctx, cfg.Plugins, env)
	if err != nil {
		return nil, err
	}
	for _, p := range built {
		if err := a.Rest.RegisterPlugin(p, true); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(a.Rest.Plugins()))
	for _, p := range a.Rest.Plugins() {
		names = append(names, p.Name())
	}
	log.WithFields(logrus.Fields{
		"files":   cfg.Files,
		"plugins": names,
	}).Info("host configured")

	return a, nil
}

/*
Serve runs the host until ctx is done. With watch_config set it also stops
when one of the loaded config files changes, returning an error that wraps
watch.ErrModified. A failing watcher stops the host with the watcher's error.
*/
func (a *App) Serve(ctx context.Context) error {
	parent := ctx
	if a.Config.WatchConfig && len(a.Config.Files) > 0 {
		wctx, stop, err := watch.UntilModified(ctx, a.Config.Files...)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer stop()
		ctx = wctx
	}

	err := a.Rest.Serve(ctx, a.Config.Address(), a.Config.ShutdownGrace())
	if err != nil {
		return err
	}
	return stopCause(parent, ctx)
}

// stopCause reports why ctx ended when it was not the parent that ended it:
// a config change or a watcher failure.
func stopCause(parent, ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || cause == context.Cause(parent) {
		return nil
	}
	return cause
}

// Run serves until ctx is done, rebuilding the host each time a watched
// config file changes.
func Run(ctx context.Context, opts Options) error {
	for {
		a, err := Setup(ctx, opts)
		if err != nil {
			return err
		}

		err = a.Serve(ctx)
		if !errors.Is(err, watch.ErrModified) {
			return err
		}
		a.Log.WithError(err).Info("configuration changed, restarting")
	}
}

func getenvFrom(environ []string) func(string) string {
	if environ == nil {
		return os.Getenv
	}
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(k string) string { return vars[k] }
}
