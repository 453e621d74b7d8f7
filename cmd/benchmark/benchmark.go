package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/dataset-host/descriptor"
	"github.com/krisalay/dataset-host/registry"
)

// ================= SLOW SOURCE =================

// slowSource stands in for a file or database read.
type slowSource struct {
	delay time.Duration
	loads atomic.Int64
}

func (s *slowSource) Load(ctx context.Context, _ []any, kwargs map[string]any) (any, error) {
	s.loads.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return kwargs["n"], nil
}

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	// ---------------- Config ----------------
	const (
		shards     = 8
		datasets   = 1000
		expiring   = 10
		ttlSeconds = 1
		loadDelay  = 20 * time.Millisecond
		goroutines = 200
		opsPerG    = 5000
	)

	fmt.Println("\n================ DATASET CACHE BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards            :", shards)
	fmt.Println("Datasets          :", datasets)
	fmt.Println("Expiring datasets :", expiring, "(invalidate_after", ttlSeconds, "s)")
	fmt.Println("Load delay        :", loadDelay)
	fmt.Println("Goroutines        :", goroutines)
	fmt.Println("Ops/Goroutine     :", opsPerG)
	fmt.Println("---------------------------------")

	// ---------------- Descriptors ----------------
	src := &slowSource{delay: loadDelay}
	set := descriptor.NewSet()
	ids := make([]string, datasets)
	for i := range ids {
		ids[i] = fmt.Sprintf("ds-%d", i)
		d := &descriptor.Dataset{
			ID:              ids[i],
			LoadFunc:        src.Load,
			Kwargs:          map[string]any{"n": i},
			SkipInitialLoad: true,
		}
		if i < expiring {
			ttl := ttlSeconds
			d.InvalidateAfter = &ttl
		}
		set.Put(d)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	reg, err := registry.New(ctx, registry.Options{
		Datasets: set,
		Logger:   log,
		Shards:   shards,
	})
	if err != nil {
		log.WithError(err).Fatal("registry")
	}

	// ---------------- Cold Start ----------------
	fmt.Println("Cold start: every goroutine resolves ds-0 at once...")
	start := time.Now()
	wg := sync.WaitGroup{}
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			reg.Resolve(ctx, ids[0])
		}()
	}
	wg.Wait()
	fmt.Printf("Cold start took %v with %d load(s).\n", time.Since(start), src.loads.Load())

	// ---------------- Warmup ----------------
	fmt.Println("Warming up cache...")
	for _, id := range ids {
		reg.Resolve(ctx, id)
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")
	before := src.loads.Load()
	start = time.Now()

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(g int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				reg.Resolve(ctx, ids[(g+j)%datasets])
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Reloads          : %d\n", src.loads.Load()-before)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}
