package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in a dataset's lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the cache returns an entry without loading.
	Hit(id string)

	// Miss is called when the cache has no entry for a known dataset and has to load it.
	Miss(id string)

	// Expire is called when an entry is found but its invalidation window has passed.
	Expire(id string)

	// Loaded is called after a successful load. at is when the load started.
	Loaded(id string, elapsed time.Duration, at time.Time)

	// LoadFailed is called when the loader returns an error.
	// stale is true when the previous value keeps being served.
	LoadFailed(id string, stale bool)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

We don't want to force every user of the cache to wire metrics,
and we don't want nil checks on every call site either,
so the engine falls back to this when no Metrics is configured.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)                              {}
func (NoopMetrics) Miss(string)                             {}
func (NoopMetrics) Expire(string)                           {}
func (NoopMetrics) Loaded(string, time.Duration, time.Time) {}
func (NoopMetrics) LoadFailed(string, bool)                 {}
