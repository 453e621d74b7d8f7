package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/dataset-host/watch"
)

func TestUntilModifiedWrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a: 1\n"), 0o644))

	ctx, stop, err := watch.UntilModified(context.Background(), file)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, ctx.Err())
	require.NoError(t, os.WriteFile(file, []byte("a: 2\n"), 0o644))

	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("context was not canceled after write")
	}
	assert.True(t, errors.Is(context.Cause(ctx), watch.ErrModified))
}

func TestUntilModifiedStop(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	ctx, stop, err := watch.UntilModified(context.Background(), file)
	require.NoError(t, err)

	stop()
	<-ctx.Done()
	assert.ErrorIs(t, context.Cause(ctx), context.Canceled)
}

func TestUntilModifiedMissingFile(t *testing.T) {
	ctx, stop, err := watch.UntilModified(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.Nil(t, ctx)
	assert.Nil(t, stop)
}
