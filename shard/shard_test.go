package shard_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/dataset-host/shard"
	"github.com/krisalay/dataset-host/types"
)

func TestSelectorIsStable(t *testing.T) {
	shards := []*shard.Shard{shard.NewShard(), shard.NewShard(), shard.NewShard()}
	sel := shard.HashSelector{}

	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("ds-%d", i)
		assert.Same(t, sel.Select(id, shards), sel.Select(id, shards))
	}
}

func TestCOWStorePutReplaces(t *testing.T) {
	s := shard.NewCOWStore()

	_, ok := s.Get("ds")
	require.False(t, ok)

	first := &types.Entry{ID: "ds", Value: 1, LoadedAt: time.Unix(10, 0)}
	s.Put("ds", first)
	got, ok := s.Get("ds")
	require.True(t, ok)
	assert.Same(t, first, got)

	second := &types.Entry{ID: "ds", Value: 2, LoadedAt: time.Unix(20, 0)}
	s.Put("ds", second)
	got, _ = s.Get("ds")
	assert.Equal(t, 2, got.Value)
	assert.Equal(t, int64(1), s.Size())
}

func TestCOWStoreConcurrentReaders(t *testing.T) {
	sh := shard.NewShard()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				sh.Store.Get("ds-1")
			}
		}()
	}

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("ds-%d", i)
		sh.WriteMu.Lock()
		sh.Store.Put(id, &types.Entry{ID: id, Value: i})
		sh.WriteMu.Unlock()
	}
	wg.Wait()

	assert.Equal(t, int64(50), sh.Store.Size())
}
