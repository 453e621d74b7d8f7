package host

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/krisalay/dataset-host/dataset"
)

// DefaultPlugins are registered when plugins_load_defaults is set.
func DefaultPlugins() []Plugin {
	return []Plugin{DatasetInfo{}, PluginInfo{}, ModuleVersion{}}
}

// DatasetInfo describes a single dataset.
type DatasetInfo struct{}

func (DatasetInfo) Name() string                { return "dataset_info" }
func (DatasetInfo) DatasetRouterPrefix() string { return "" }

func (DatasetInfo) DatasetRoutes(g *echo.Group, deps Dependencies) {
	summary := func(c echo.Context) error {
		v, err := deps.Dataset(c)
		if err != nil {
			return err
		}
		if ds, ok := v.(*dataset.Dataset); ok {
			return c.JSON(http.StatusOK, ds.Summary())
		}
		return c.JSON(http.StatusOK, v)
	}
	g.GET("", summary)
	g.GET("/info", summary)

	g.GET("/keys", func(c echo.Context) error {
		ds, err := asDataset(deps, c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, ds.Names())
	})

	g.GET("/dict", func(c echo.Context) error {
		ds, err := asDataset(deps, c)
		if err != nil {
			return err
		}
		vars := make(map[string]*dataset.Variable, len(ds.Names()))
		for _, name := range ds.Names() {
			vars[name], _ = ds.Variable(name)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"attrs":     ds.Attrs,
			"dims":      ds.Summary().Dims,
			"data_vars": vars,
		})
	})
}

func asDataset(deps Dependencies, c echo.Context) (*dataset.Dataset, error) {
	v, err := deps.Dataset(c)
	if err != nil {
		return nil, err
	}
	ds, ok := v.(*dataset.Dataset)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotImplemented, fmt.Sprintf("dataset %s is a %T, not a tabular dataset", c.Param(DatasetIDParam), v))
	}
	return ds, nil
}

// PluginInfo lists the registered plugins.
type PluginInfo struct{}

func (PluginInfo) Name() string            { return "plugin_info" }
func (PluginInfo) AppRouterPrefix() string { return "" }

type PluginDescription struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Hooks []string `json:"hooks"`
}

func (PluginInfo) AppRoutes(g *echo.Group, deps Dependencies) {
	g.GET("/plugins", func(c echo.Context) error {
		plugins := deps.Plugins()
		out := make([]PluginDescription, 0, len(plugins))
		for _, p := range plugins {
			out = append(out, Describe(p))
		}
		return c.JSON(http.StatusOK, out)
	})
}

// Describe reports which hooks p implements.
func Describe(p Plugin) PluginDescription {
	d := PluginDescription{Name: p.Name(), Type: fmt.Sprintf("%T", p), Hooks: []string{}}
	if _, ok := p.(DatasetProvider); ok {
		d.Hooks = append(d.Hooks, "get_datasets", "get_dataset")
	}
	if _, ok := p.(AppRouter); ok {
		d.Hooks = append(d.Hooks, "app_router")
	}
	if _, ok := p.(DatasetRouter); ok {
		d.Hooks = append(d.Hooks, "dataset_router")
	}
	return d
}

// ModuleVersion reports the Go runtime and module versions the binary was built with.
type ModuleVersion struct{}

func (ModuleVersion) Name() string            { return "module_version" }
func (ModuleVersion) AppRouterPrefix() string { return "" }

func (ModuleVersion) AppRoutes(g *echo.Group, _ Dependencies) {
	g.GET("/versions", func(c echo.Context) error {
		return c.JSON(http.StatusOK, Versions())
	})
}

func Versions() map[string]string {
	out := map[string]string{"go": runtime.Version()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if info.Main.Path != "" {
		out[info.Main.Path] = info.Main.Version
	}
	for _, dep := range info.Deps {
		out[dep.Path] = dep.Version
	}
	return out
}
