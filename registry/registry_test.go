package registry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/dataset-host/config"
	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/registry"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func counter(calls *atomic.Int64) func(context.Context, []any, map[string]any) (any, error) {
	return func(context.Context, []any, map[string]any) (any, error) {
		return calls.Add(1), nil
	}
}

func seconds(n int) *int { return &n }

func noEnv(string) string { return "" }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestInvalidateAfterReloads(t *testing.T) {
	var calls atomic.Int64
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(&descriptor.Dataset{
			ID:              "counter",
			LoadFunc:        counter(&calls),
			InvalidateAfter: seconds(10),
		}),
		Clock:  clock,
		Getenv: noEnv,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load(), "initial load")

	ctx := context.Background()
	v, err := reg.Resolve(ctx, "counter")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	clock.Advance(5 * time.Second)
	v, _ = reg.Resolve(ctx, "counter")
	assert.EqualValues(t, 1, v)

	clock.Advance(6 * time.Second)
	v, _ = reg.Resolve(ctx, "counter")
	assert.EqualValues(t, 2, v)

	ent, ok := reg.Entry("counter")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), ent.LoadedAt)
}

func TestSkipInitialLoad(t *testing.T) {
	var eager, lazy atomic.Int64

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(
			&descriptor.Dataset{ID: "eager", LoadFunc: counter(&eager)},
			&descriptor.Dataset{ID: "lazy", LoadFunc: counter(&lazy), SkipInitialLoad: true},
		),
		Getenv: noEnv,
	})
	require.NoError(t, err)

	_, ok := reg.Entry("eager")
	assert.True(t, ok)
	_, ok = reg.Entry("lazy")
	assert.False(t, ok)
	assert.Zero(t, lazy.Load())

	_, err = reg.Resolve(context.Background(), "lazy")
	require.NoError(t, err)
	assert.EqualValues(t, 1, lazy.Load())
}

func TestUnknownIDDoesNotLoad(t *testing.T) {
	var calls atomic.Int64
	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(&descriptor.Dataset{ID: "a", LoadFunc: counter(&calls), SkipInitialLoad: true}),
		Getenv:   noEnv,
	})
	require.NoError(t, err)

	_, err = reg.Resolve(context.Background(), "b")
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.Zero(t, calls.Load())

	_, ok := reg.Descriptor("b")
	assert.False(t, ok)
}

func TestInitialLoadFailureIsNotFatal(t *testing.T) {
	log, hook := logtest.NewNullLogger()

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(&descriptor.Dataset{
			ID: "broken",
			LoadFunc: func(context.Context, []any, map[string]any) (any, error) {
				return nil, errors.New("boom")
			},
		}),
		Logger: log,
		Getenv: noEnv,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, reg.ListIDs())

	_, ok := reg.Entry("broken")
	assert.False(t, ok)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "initial load failed" {
			logged = true
		}
	}
	assert.True(t, logged)

	_, err = reg.Resolve(context.Background(), "broken")
	assert.Error(t, err)
}

func TestPanickingLoaderDoesNotStopOthers(t *testing.T) {
	var calls atomic.Int64
	log, _ := logtest.NewNullLogger()

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(
			&descriptor.Dataset{
				ID: "bad",
				LoadFunc: func(context.Context, []any, map[string]any) (any, error) {
					var m map[string]int
					m["x"] = 1
					return m, nil
				},
			},
			&descriptor.Dataset{ID: "ok", LoadFunc: counter(&calls)},
		),
		Logger: log,
		Getenv: noEnv,
	})
	require.NoError(t, err)

	_, ok := reg.Entry("bad")
	assert.False(t, ok)
	_, ok = reg.Entry("ok")
	assert.True(t, ok)
	assert.EqualValues(t, 1, calls.Load())

	_, err = reg.Resolve(context.Background(), "bad")
	assert.ErrorContains(t, err, "loader panicked")
}

func TestNewDoesNotModifyCallerDescriptors(t *testing.T) {
	d := &descriptor.Dataset{ID: "a", Loader: "examples.simple", SkipInitialLoad: true}

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(d),
		Getenv:   noEnv,
	})
	require.NoError(t, err)
	assert.Nil(t, d.LoadFunc)

	got, ok := reg.Descriptor("a")
	require.True(t, ok)
	assert.NotNil(t, got.LoadFunc)
	assert.NotSame(t, d, got)
}

func TestMergeOrder(t *testing.T) {
	envFile := writeFile(t, "env.yaml", `
datasets_config:
  a:
    title: from env file
    loader: examples.simple
  b:
    title: from env file
    loader: examples.simple
`)
	optFile := writeFile(t, "opt.yaml", `
datasets_config:
  b:
    title: from options file
    loader: examples.simple
  c:
    title: from options file
    loader: examples.simple
`)

	getenv := func(k string) string {
		if k == registry.EnvConfigFile {
			return envFile
		}
		return ""
	}

	reg, err := registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(&descriptor.Dataset{ID: "c", Title: "direct", Loader: "examples.simple"}),
		File:     optFile,
		Getenv:   getenv,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, reg.ListIDs())

	titles := map[string]string{}
	for _, id := range reg.ListIDs() {
		d, ok := reg.Descriptor(id)
		require.True(t, ok)
		titles[id] = d.Title
	}
	assert.Equal(t, map[string]string{
		"a": "from env file",
		"b": "from options file",
		"c": "direct",
	}, titles)
}

func TestMissingEnvFileIsSkipped(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	getenv := func(k string) string {
		if k == registry.EnvConfigFile {
			return filepath.Join(t.TempDir(), "missing.yaml")
		}
		return ""
	}

	reg, err := registry.New(context.Background(), registry.Options{Logger: log, Getenv: getenv})
	require.NoError(t, err)
	assert.Empty(t, reg.ListIDs())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFileErrors(t *testing.T) {
	_, err := registry.New(context.Background(), registry.Options{
		File:   filepath.Join(t.TempDir(), "missing.yaml"),
		Getenv: noEnv,
	})
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "datasets_config: [1, 2]\n")
	_, err = registry.New(context.Background(), registry.Options{File: bad, Getenv: noEnv})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = registry.New(context.Background(), registry.Options{
		Datasets: descriptor.NewSet(&descriptor.Dataset{ID: "x", Loader: "does.not.exist"}),
		Getenv:   noEnv,
	})
	assert.ErrorIs(t, err, descriptor.ErrUnresolvableLoader)
}
