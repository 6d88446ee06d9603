package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/config"
	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/loader"
	"github.com/pxgraf/task-cache/logging"
	"github.com/pxgraf/task-cache/metrics"
	"github.com/pxgraf/task-cache/refresh"
	"github.com/pxgraf/task-cache/types"
	"github.com/pxgraf/task-cache/visualization"
)

// ================= CLOCK =================

// demoClock lets the walk-through jump past the freshness window.
type demoClock struct {
	mu     sync.Mutex
	offset time.Duration
}

func (c *demoClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.offset)
}

func (c *demoClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.offset += d
	c.mu.Unlock()
}

// ================= TABLE SOURCE =================

// tableSource stands in for the statistics database.
type tableSource struct {
	mu      sync.Mutex
	updated map[string]time.Time
	loads   int
}

func (s *tableSource) Load(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	s.loads++
	n := s.loads
	s.mu.Unlock()
	fmt.Println("SOURCE → compute:", key)
	return fmt.Sprintf("%s (computation #%d)", key, n), nil
}

func (s *tableSource) LastUpdated(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated[key], nil
}

func (s *tableSource) Touch(key string, at time.Time) {
	s.mu.Lock()
	s.updated[key] = at
	s.mu.Unlock()
}

// ================= MAIN =================

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	policy, err := cfg.Eviction()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("EVICTION POLICY :", policy)
	fmt.Println("SHARDS          :", cfg.Shards)
	fmt.Println("SIZE LIMIT      :", cfg.SizeLimit)
	fmt.Println("FRESHNESS       :", cfg.FreshnessInterval)
	fmt.Println("SLIDING         :", cfg.SlidingExpiration)
	fmt.Println("ABSOLUTE        :", cfg.AbsoluteExpiration)

	// ---------------- Metrics ----------------
	prom := metrics.NewPrometheus("pxgraf")
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background()) //nolint:errcheck
		logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	// ---------------- Stores ----------------
	clock := &demoClock{}
	newStore := func(name string) *cache.ShardedStore {
		e := engine.NewCacheEngine(
			engine.WithClock(clock),
			engine.WithFreshnessInterval(cfg.FreshnessInterval),
			engine.WithMetrics(prom.For(name)),
			engine.WithLogger(logger.Named(name)),
		)
		return cache.NewShardedStore(cfg.Shards, cfg.SizeLimit, policy, e,
			cache.WithSweepInterval(cfg.SweepInterval))
	}

	tasks := cache.NewMultiStateCache(newStore("tasks"))
	defer tasks.Store().Close()

	// ====================================================
	fmt.Println("\n==================== 1) FRESH ====================")
	cache.SetFuture(tasks, "A", future.Completed(42), 5*time.Minute, 30*time.Minute)
	printTask(ctx, tasks, "A")

	// ====================================================
	fmt.Println("\n==================== 2) STALE ====================")
	clock.Advance(cfg.FreshnessInterval)
	fmt.Println("CLOCK  → advanced", cfg.FreshnessInterval)
	printTask(ctx, tasks, "A")

	// ====================================================
	fmt.Println("\n==================== 3) REFRESH ====================")
	tasks.Refresh("A")
	fmt.Println("CACHE  → REFRESH A")
	printTask(ctx, tasks, "A")

	// ====================================================
	fmt.Println("\n==================== 4) FAULT ====================")
	boom := future.Go(ctx, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	cache.SetFuture(tasks, "B", boom, 5*time.Minute, 30*time.Minute)
	<-boom.Done()
	printTask(ctx, tasks, "B")
	printTask(ctx, tasks, "B")

	// ====================================================
	fmt.Println("\n==================== 5) ABSENT ====================")
	printTask(ctx, tasks, "never-set")

	// ====================================================
	fmt.Println("\n==================== 6) READ-THROUGH ====================")
	source := &tableSource{updated: map[string]time.Time{}}
	tables := cache.NewMultiStateCache(newStore("tables"))
	defer tables.Store().Close()

	coord := loader.New[string](tables, source,
		loader.WithRefreshPolicy[string](refresh.UpdatedSince(source.LastUpdated)),
		loader.WithExpirations[string](cfg.SlidingExpiration, cfg.AbsoluteExpiration),
		loader.WithLogger[string](logger.Named("loader")),
		loader.WithSingleFlight[string](),
	)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v, err := coord.Get(ctx, "StatFin/vaerak/statfin_vaerak_pxt_11ra.px")
			fmt.Printf("CALLER-%d → %v %v\n", id, v, err)
		}(i)
	}
	wg.Wait()

	clock.Advance(cfg.FreshnessInterval)
	v, _ := coord.Get(ctx, "StatFin/vaerak/statfin_vaerak_pxt_11ra.px")
	fmt.Println("STALE, TABLE UNCHANGED →", v)

	clock.Advance(cfg.FreshnessInterval)
	source.Touch("StatFin/vaerak/statfin_vaerak_pxt_11ra.px", clock.Now())
	v, _ = coord.Get(ctx, "StatFin/vaerak/statfin_vaerak_pxt_11ra.px")
	fmt.Println("STALE, TABLE UPDATED  →", v)

	// ====================================================
	fmt.Println("\n==================== 7) VISUALIZATION RESPONSES ====================")
	responses := visualization.NewResponseCache(newStore("visualizations"))
	defer responses.Store().Close()

	req := visualization.Request{
		Table: visualization.TableReference{
			Name:      "statfin_vaerak_pxt_11ra.px",
			Hierarchy: []string{"StatFin", "vaerak"},
		},
		Query: map[string]visualization.DimensionQuery{
			"Alue":  {Selection: "Item", Values: []string{"SSS"}},
			"Vuosi": {Selection: "From", Values: []string{"2000"}},
		},
		Settings: visualization.Settings{VisualizationType: "LineChart"},
		Language: "fi",
	}
	key, err := req.Key()
	if err != nil {
		return err
	}
	fmt.Println("KEY    →", key)

	pending := future.New[*visualization.Response]()
	responses.Set(key, pending, cfg.SlidingExpiration, cfg.AbsoluteExpiration)
	st, _ := responses.TryGet(key)
	fmt.Println("CACHE  → TRYGET while computing =", st)

	pending.Resolve(&visualization.Response{Table: req.Table, Header: "Väestö 31.12."})
	st, f := responses.TryGet(key)
	resp, _ := f.Wait(ctx)
	fmt.Println("CACHE  → TRYGET after compute   =", st, resp.Header)

	clock.Advance(cfg.FreshnessInterval)
	st, _ = responses.TryGet(key)
	fmt.Println("CACHE  → TRYGET after window    =", st)

	// ====================================================
	fmt.Println("\n==================== STORE ====================")
	fmt.Printf("TASKS          : %d entries, size %d\n", tasks.Store().Len(), tasks.Store().Size())
	fmt.Printf("TABLES         : %d entries, size %d\n", tables.Store().Len(), tables.Store().Size())
	fmt.Printf("VISUALIZATIONS : %d entries, size %d\n", responses.Store().Len(), responses.Store().Size())

	fmt.Println("\n==================== SHUTDOWN ====================")
	return nil
}

func printTask(ctx context.Context, c *cache.MultiStateCache, key string) {
	st, f := cache.TryGetAs[int](c, key)
	if f == nil {
		fmt.Printf("CACHE  → TRYGET %s = (%s, nil)\n", key, st)
		return
	}
	v, err := f.Wait(ctx)
	fmt.Printf("CACHE  → TRYGET %s = (%s, %v %v)\n", key, st, v, err)
}

var _ types.Clock = (*demoClock)(nil)
