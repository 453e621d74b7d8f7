// Package metrics exports dataset load and HTTP request metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krisalay/dataset-host/types"
)

const Path = "/metrics"

// Buckets are the HTTP request duration buckets in seconds.
var Buckets = []float64{0.01, 0.1, 0.25, 0.5, 1.0}

// SkipPaths are never instrumented.
var SkipPaths = []string{"/health", Path, "/favicon.ico"}

type Options struct {
	// Prefix starts every metric name.
	Prefix string

	// AppName and Environment are attached to every metric as labels.
	AppName     string
	Environment string
}

/*
Metrics is the Prometheus implementation of types.Metrics plus the HTTP
instrumentation. Each instance owns its registry so several hosts can live in
one process.
*/
type Metrics struct {
	Registry *prometheus.Registry

	loadTime  *prometheus.GaugeVec
	loadCount *prometheus.CounterVec
	loadWhen  *prometheus.GaugeVec
	lookups   *prometheus.CounterVec
	failures  *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ types.Metrics = (*Metrics)(nil)

func New(opts Options) *Metrics {
	labels := prometheus.Labels{
		"environment": opts.Environment,
		"app_name":    opts.AppName,
	}
	name := func(n string) string {
		if opts.Prefix == "" {
			return n
		}
		return opts.Prefix + "_" + n
	}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		loadTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        name("dataset_load_time"),
			Help:        "How long it took to last load the dataset, in seconds.",
			ConstLabels: labels,
		}, []string{"dataset"}),
		loadCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name("dataset_load_count"),
			Help:        "How many times a dataset has been loaded.",
			ConstLabels: labels,
		}, []string{"dataset"}),
		loadWhen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        name("dataset_load_when"),
			Help:        "When the dataset was last loaded, as a unix timestamp.",
			ConstLabels: labels,
		}, []string{"dataset"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name("dataset_lookups_total"),
			Help:        "Dataset cache lookups by result.",
			ConstLabels: labels,
		}, []string{"dataset", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name("dataset_load_failures_total"),
			Help:        "Failed dataset loads. stale is true when the previous value kept being served.",
			ConstLabels: labels,
		}, []string{"dataset", "stale"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        name("http_requests_in_progress"),
			Help:        "Current number of in-flight HTTP requests.",
			ConstLabels: labels,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        name("http_requests_total"),
			Help:        "Total number of HTTP requests handled.",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        name("http_request_duration_seconds"),
			Help:        "Duration of HTTP requests.",
			Buckets:     Buckets,
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
	}

	m.Registry.MustRegister(
		m.loadTime,
		m.loadCount,
		m.loadWhen,
		m.lookups,
		m.failures,
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Hit(id string)    { m.lookups.WithLabelValues(id, "hit").Inc() }
func (m *Metrics) Miss(id string)   { m.lookups.WithLabelValues(id, "miss").Inc() }
func (m *Metrics) Expire(id string) { m.lookups.WithLabelValues(id, "expired").Inc() }

func (m *Metrics) Loaded(id string, elapsed time.Duration, at time.Time) {
	m.loadTime.WithLabelValues(id).Set(elapsed.Seconds())
	m.loadWhen.WithLabelValues(id).Set(float64(at.Add(elapsed).UnixNano()) / 1e9)
	m.loadCount.WithLabelValues(id).Inc()
}

func (m *Metrics) LoadFailed(id string, stale bool) {
	m.failures.WithLabelValues(id, strconv.FormatBool(stale)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Register mounts the metrics endpoint on e.
func (m *Metrics) Register(e *echo.Echo) {
	e.GET(Path, echo.WrapHandler(m.Handler()))
}

// Middleware records request counts and durations, labelled by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(SkipPaths))
	for _, p := range SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			m.httpInFlight.Inc()
			defer m.httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			m.httpRequests.WithLabelValues(method, path, status).Inc()
			m.httpDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
