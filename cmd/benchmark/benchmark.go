package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/eviction"
	"github.com/pxgraf/task-cache/future"
)

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	// ---------------- Cache Config ----------------
	const (
		shards      = 8
		sizeLimit   = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
		writeEvery  = 20
	)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", shards)
	fmt.Println("Size Limit   :", sizeLimit)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Write Ratio  :", fmt.Sprintf("1/%d", writeEvery))
	fmt.Println("---------------------------------")

	// ---------------- Cache ----------------
	e := engine.NewCacheEngine(engine.WithFreshnessInterval(time.Minute))
	store := cache.NewShardedStore(shards, sizeLimit, eviction.LRU, e)
	c := cache.NewMultiStateCache(store)
	defer store.Close()

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		cache.SetFuture(c, fmt.Sprintf("key-%d", i), future.Completed(i), 15*time.Minute, 12*time.Hour)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	var fresh, other atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < goroutines; i++ {
		id := i
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				key := fmt.Sprintf("key-%d", (id*opsPerG+j)%preloadKeys)
				if j%writeEvery == 0 {
					cache.SetFuture(c, key, future.Completed(j), 15*time.Minute, 12*time.Hour)
					continue
				}
				if st, _ := c.TryGet(key); st == cache.Fresh {
					fresh.Add(1)
				} else {
					other.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Println("benchmark aborted:", err)
		return
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Fresh Reads      : %d\n", fresh.Load())
	fmt.Printf("Other Reads      : %d\n", other.Load())
	fmt.Printf("Entries          : %d (size %d)\n", store.Len(), store.Size())
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}
