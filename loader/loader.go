// Package loader implements the read-through flow on top of the task
// cache: serve fresh work, decide what to do with stale work, and start
// new work on a miss or after a failure.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/api"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/refresh"
	"github.com/pxgraf/task-cache/types"
)

// Cache is what the coordinator needs from the task cache.
type Cache interface {
	api.TaskCache

	// RegisteredAt returns when the current computation for key was Set.
	RegisteredAt(key string) (time.Time, bool)
}

var _ Cache = (*cache.MultiStateCache)(nil)

// Coordinator serves values of type T for keys, producing them with a
// Loader and sharing each computation through the cache.
type Coordinator[T any] struct {
	cache    Cache
	loader   types.Loader[T]
	policy   refresh.Policy
	sliding  time.Duration
	absolute time.Duration
	logger   *zap.Logger

	// sf is nil unless WithSingleFlight was given.
	sf *singleflight.Group
}

// Option configures a Coordinator.
type Option[T any] func(*Coordinator[T])

// WithRefreshPolicy sets how stale entries are handled. Default: refresh.Always.
func WithRefreshPolicy[T any](p refresh.Policy) Option[T] {
	return func(c *Coordinator[T]) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithExpirations sets the timers given to every Set.
func WithExpirations[T any](sliding, absolute time.Duration) Option[T] {
	return func(c *Coordinator[T]) {
		c.sliding = sliding
		c.absolute = absolute
	}
}

func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(c *Coordinator[T]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSingleFlight makes concurrent misses for one key inside this
// process start a single computation. Without it two callers missing at
// the same instant may both compute; the last Set wins.
func WithSingleFlight[T any]() Option[T] {
	return func(c *Coordinator[T]) { c.sf = &singleflight.Group{} }
}

// Default timers used when WithExpirations is not given.
const (
	DefaultSlidingExpiration  = 15 * time.Minute
	DefaultAbsoluteExpiration = 12 * time.Hour
)

func New[T any](c Cache, l types.Loader[T], opts ...Option[T]) *Coordinator[T] {
	co := &Coordinator[T]{
		cache:    c,
		loader:   l,
		policy:   refresh.Always{},
		sliding:  DefaultSlidingExpiration,
		absolute: DefaultAbsoluteExpiration,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

/*
Get returns the value for key, waiting for it if necessary.

  - Fresh: the registered computation is awaited
  - Stale: the refresh policy either keeps it (and re-stamps it fresh) or
    a new computation replaces it
  - Null or Error: a new computation is started and registered

Cancelling ctx abandons the wait only; a started computation keeps
running for the other callers sharing it. A failed computation is
returned as an error and purged on the next lookup. Get never retries.
*/
func (c *Coordinator[T]) Get(ctx context.Context, key string) (T, error) {
	f := c.Future(ctx, key)
	v, err := f.Wait(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %q: %w", key, err)
	}
	return v, nil
}

// Future is Get without the wait.
func (c *Coordinator[T]) Future(ctx context.Context, key string) *future.Future[T] {
	st, h := c.cache.TryGet(key)
	f, typed := h.(*future.Future[T])

	switch {
	case st == cache.Fresh && typed:
		return f

	case st == cache.Stale && typed:
		if !c.shouldRecompute(ctx, key) {
			c.cache.Refresh(key)
			return f
		}
	}

	return c.start(ctx, key)
}

func (c *Coordinator[T]) shouldRecompute(ctx context.Context, key string) bool {
	registered, ok := c.cache.RegisteredAt(key)
	if !ok {
		return true
	}
	recompute, err := c.policy.ShouldRecompute(ctx, key, registered)
	if err != nil {
		c.logger.Warn("refresh check failed, recomputing",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return recompute
}

func (c *Coordinator[T]) start(ctx context.Context, key string) *future.Future[T] {
	if c.sf == nil {
		return c.register(ctx, key)
	}

	v, _, _ := c.sf.Do(key, func() (any, error) {
		// Someone may have registered while we queued behind them.
		if st, h := c.cache.TryGet(key); st == cache.Fresh {
			if f, ok := h.(*future.Future[T]); ok {
				return f, nil
			}
		}
		return c.register(ctx, key), nil
	})
	return v.(*future.Future[T])
}

func (c *Coordinator[T]) register(ctx context.Context, key string) *future.Future[T] {
	f := future.Go(context.WithoutCancel(ctx), func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := c.loader.Load(ctx, key)
		if err != nil {
			c.logger.Warn("computation failed",
				zap.String("key", key),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return v, err
		}
		c.logger.Debug("computation finished",
			zap.String("key", key),
			zap.Duration("elapsed", time.Since(start)),
		)
		return v, nil
	})
	c.cache.Set(key, f, c.sliding, c.absolute)
	return f
}
