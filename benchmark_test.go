package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	cache "github.com/krisalay/dataset-host"
	"github.com/krisalay/dataset-host/engine"
	"github.com/krisalay/dataset-host/expiration"
	"github.com/krisalay/dataset-host/types"
)

func newBenchmarkCache(ids int, exp expiration.Strategy) (*cache.DatasetCache, []string) {
	src := make(mapSource, ids)
	keys := make([]string, ids)
	for i := range keys {
		keys[i] = fmt.Sprintf("ds-%d", i)
		v := i
		src[keys[i]] = engine.Binding{
			Loader:     types.LoaderFunc(func(context.Context) (any, error) { return v, nil }),
			Expiration: exp,
		}
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	eng := engine.NewCacheEngine(src, nil, nil, log)
	return cache.NewDatasetCache(8, eng), keys
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkResolveHit(b *testing.B) {
	ctx := context.Background()
	c, keys := newBenchmarkCache(1, expiration.Never{})
	_, _ = c.Resolve(ctx, keys[0])

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Resolve(ctx, keys[0])
	}
}

func BenchmarkResolveAlwaysStale(b *testing.B) {
	ctx := context.Background()
	c, keys := newBenchmarkCache(1, ttl(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Resolve(ctx, keys[0])
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkResolveParallelHit(b *testing.B) {
	ctx := context.Background()
	c, keys := newBenchmarkCache(1000, expiration.Never{})
	for _, k := range keys {
		_, _ = c.Resolve(ctx, k)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.Resolve(ctx, "ds-42")
		}
	})
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkResolveHighConcurrency(b *testing.B) {
	ctx := context.Background()
	c, keys := newBenchmarkCache(10000, ttl(time.Minute))

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				_, _ = c.Resolve(ctx, keys[j%len(keys)])
			}
		}()
	}
	wg.Wait()
}
