package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/dataset-host/engine"
	"github.com/krisalay/dataset-host/expiration"
	"github.com/krisalay/dataset-host/types"
)

// steppingClock advances by step on every read, so a load appears to take one step.
type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type loadedCall struct {
	id      string
	elapsed time.Duration
	at      time.Time
}

type metricsSpy struct {
	types.NoopMetrics
	loaded []loadedCall
}

func (m *metricsSpy) Loaded(id string, elapsed time.Duration, at time.Time) {
	m.loaded = append(m.loaded, loadedCall{id, elapsed, at})
}

type source map[string]engine.Binding

func (s source) Lookup(id string) (engine.Binding, bool) {
	b, ok := s[id]
	return b, ok
}

func TestLoadStampsStartTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &steppingClock{now: start, step: 2 * time.Second}
	spy := &metricsSpy{}
	log, _ := logtest.NewNullLogger()

	b := engine.Binding{Loader: types.LoaderFunc(func(context.Context) (any, error) { return "v", nil })}
	e := engine.NewCacheEngine(source{"ds": b}, clock, spy, log)

	ent, err := e.Load(context.Background(), "ds", b)
	require.NoError(t, err)
	assert.Equal(t, "ds", ent.ID)
	assert.Equal(t, "v", ent.Value)
	assert.Equal(t, start, ent.LoadedAt)

	require.Len(t, spy.loaded, 1)
	assert.Equal(t, loadedCall{"ds", 2 * time.Second, start}, spy.loaded[0])
}

func TestLoadFailureReturnsNoEntry(t *testing.T) {
	boom := errors.New("boom")
	spy := &metricsSpy{}
	b := engine.Binding{Loader: types.LoaderFunc(func(context.Context) (any, error) { return nil, boom })}
	e := engine.NewCacheEngine(source{}, nil, spy, nil)

	ent, err := e.Load(context.Background(), "ds", b)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, ent)
	assert.Empty(t, spy.loaded)
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	clock := &steppingClock{now: now}
	e := engine.NewCacheEngine(source{}, clock, nil, nil)

	ent := &types.Entry{ID: "ds", LoadedAt: now.Add(-10 * time.Second)}
	ttl := 10 * time.Second

	assert.False(t, e.IsExpired(engine.Binding{}, ent), "no strategy never expires")
	assert.False(t, e.IsExpired(engine.Binding{Expiration: expiration.Never{}}, ent))
	assert.True(t, e.IsExpired(engine.Binding{Expiration: expiration.For(&ttl)}, ent))
}

func TestLookupDelegatesToSource(t *testing.T) {
	e := engine.NewCacheEngine(source{"a": {}}, nil, nil, nil)

	_, ok := e.Lookup("a")
	assert.True(t, ok)
	_, ok = e.Lookup("b")
	assert.False(t, ok)
}

func TestLoadPanicIsAFailure(t *testing.T) {
	spy := &metricsSpy{}
	b := engine.Binding{Loader: types.LoaderFunc(func(context.Context) (any, error) {
		var m map[string]int
		m["x"] = 1
		return m, nil
	})}
	e := engine.NewCacheEngine(source{}, nil, spy, nil)

	ent, err := e.Load(context.Background(), "ds", b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader panicked")
	assert.Nil(t, ent)
	assert.Empty(t, spy.loaded)
}

func TestLoadNilValueIsAFailure(t *testing.T) {
	b := engine.Binding{Loader: types.LoaderFunc(func(context.Context) (any, error) { return nil, nil })}
	e := engine.NewCacheEngine(source{}, nil, nil, nil)

	ent, err := e.Load(context.Background(), "ds", b)
	assert.ErrorIs(t, err, engine.ErrNilValue)
	assert.Nil(t, ent)
}
