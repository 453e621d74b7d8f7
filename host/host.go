// Package host is the REST application: plugin registration, dataset hook
// dispatch and the HTTP routes built from the registered plugins.
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// DatasetIDParam is the path parameter naming the dataset in dataset-scoped routes.
const DatasetIDParam = "dataset_id"

var (
	ErrDatasetNotFound = errors.New("host: dataset not found")
	ErrDuplicatePlugin = errors.New("host: plugin already registered")
	ErrMounted         = errors.New("host: routes already mounted")
)

type Options struct {
	Logger logrus.FieldLogger

	// Middleware runs after the host's own request id, recover and access log middleware.
	Middleware []echo.MiddlewareFunc

	// Setup is called on the echo instance before plugin routes are mounted.
	// Health and metrics endpoints are registered through it.
	Setup []func(e *echo.Echo)
}

/*
Rest is the served application.

Plugins are registered first; the first call to Handler mounts every route.
After that the plugin set is fixed.
*/
type Rest struct {
	Echo *echo.Echo

	log   logrus.FieldLogger
	opts  Options
	mount sync.Once

	mu      sync.RWMutex
	plugins []Plugin
	mounted bool
}

func New(opts Options) *Rest {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	r := &Rest{Echo: e, log: log.WithField("component", "host"), opts: opts}
	e.HTTPErrorHandler = r.errorHandler
	return r
}

/*
RegisterPlugin adds p. A plugin with the same name is an error unless
overwrite is set, in which case p takes the old plugin's place.
*/
func (r *Rest) RegisterPlugin(p Plugin, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mounted {
		return fmt.Errorf("%w: cannot register %s", ErrMounted, p.Name())
	}
	for i, existing := range r.plugins {
		if existing.Name() != p.Name() {
			continue
		}
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, p.Name())
		}
		r.plugins[i] = p
		r.log.WithField("plugin", p.Name()).Debug("plugin replaced")
		return nil
	}
	r.plugins = append(r.plugins, p)
	r.log.WithField("plugin", p.Name()).Debug("plugin registered")
	return nil
}

// Plugins returns registered plugins in registration order.
func (r *Rest) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins...)
}

func (r *Rest) providers() []DatasetProvider {
	var out []DatasetProvider
	for _, p := range r.Plugins() {
		if dp, ok := p.(DatasetProvider); ok {
			out = append(out, dp)
		}
	}
	return out
}

// DatasetIDs returns the ids of every provider, in registration order, without duplicates.
func (r *Rest) DatasetIDs(ctx context.Context) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	for _, p := range r.providers() {
		for _, id := range p.GetDatasets(ctx) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Dataset asks each provider in turn; the first one that knows id answers.
func (r *Rest) Dataset(ctx context.Context, id string) (any, error) {
	for _, p := range r.providers() {
		ds, err := p.GetDataset(ctx, id)
		if err != nil {
			return nil, err
		}
		if ds != nil {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
}

// Handler mounts the routes on first use and returns the application handler.
func (r *Rest) Handler() http.Handler {
	r.mount.Do(r.mountRoutes)
	return r.Echo
}

func (r *Rest) mountRoutes() {
	r.mu.Lock()
	r.mounted = true
	r.mu.Unlock()

	e := r.Echo
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(accessLog(r.log))
	e.Use(r.opts.Middleware...)

	for _, setup := range r.opts.Setup {
		setup(e)
	}

	deps := Dependencies{rest: r}

	e.GET("/datasets", func(c echo.Context) error {
		return c.JSON(http.StatusOK, r.DatasetIDs(c.Request().Context()))
	})

	scoped := e.Group("/datasets/:" + DatasetIDParam)
	for _, p := range r.Plugins() {
		log := r.log.WithField("plugin", p.Name())
		if ar, ok := p.(AppRouter); ok {
			ar.AppRoutes(e.Group(ar.AppRouterPrefix()), deps)
			log.WithField("prefix", ar.AppRouterPrefix()).Debug("app routes mounted")
		}
		if dr, ok := p.(DatasetRouter); ok {
			dr.DatasetRoutes(scoped.Group(dr.DatasetRouterPrefix()), deps)
			log.WithField("prefix", dr.DatasetRouterPrefix()).Debug("dataset routes mounted")
		}
	}

	for _, route := range e.Routes() {
		r.log.WithField("method", route.Method).WithField("path", route.Path).Debug("route")
	}
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func (r *Rest) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		status = http.StatusNotFound
	case errors.As(err, &he):
		status = he.Code
		if he.Internal != nil {
			detail = he.Internal.Error()
		} else {
			detail = fmt.Sprint(he.Message)
		}
	}

	if status >= http.StatusInternalServerError {
		r.log.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorBody{Detail: detail})
	}
	if err != nil {
		r.log.WithError(err).Warn("writing error response failed")
	}
}

/*
Serve runs the application on addr until ctx is done, then shuts down,
giving in-flight requests up to grace to finish.
*/
func (r *Rest) Serve(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		r.log.WithField("addr", addr).Info("serving")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	r.log.WithField("cause", context.Cause(ctx)).Info("shutting down")
	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	return nil
}
