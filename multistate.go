package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/types"
)

// freshnessPrefix namespaces freshness tokens away from caller keys.
const freshnessPrefix = "\x00fresh\x00"

func freshnessKey(key string) string {
	return freshnessPrefix + key
}

/*
MultiStateCache maps keys to in-flight or completed computations and
tells callers whether what it holds is fresh, stale or failed.

Every logical key occupies two store entries that share one future:

  - a size-1 value entry living on the caller's sliding/absolute timers
  - a zero-size freshness token whose absolute timer is the freshness
    interval

The token expiring is what demotes a key from Fresh to Stale, so no
timestamp comparison or background timer is needed on the read path.

The cache adds no locking of its own. Two concurrent Sets for one key
race and the last write wins.
*/
type MultiStateCache struct {
	store  *ShardedStore
	engine *engine.CacheEngine
}

func NewMultiStateCache(store *ShardedStore) *MultiStateCache {
	return &MultiStateCache{store: store, engine: store.Engine()}
}

// Store exposes the underlying store, mainly for size introspection.
func (c *MultiStateCache) Store() *ShardedStore {
	return c.store
}

// Set registers h for key, replacing whatever was there, and stamps the
// key fresh.
func (c *MultiStateCache) Set(key string, h future.Handle, sliding, absolute time.Duration) {
	c.store.Put(key, h, types.EntryOptions{
		Size:     1,
		Sliding:  sliding,
		Absolute: absolute,
	})
	c.putToken(key, h)
}

// Refresh stamps key fresh again without touching its future or timers.
// It is a no-op when the key holds nothing.
func (c *MultiStateCache) Refresh(key string) {
	ent, ok := c.store.Get(key)
	if !ok {
		return
	}
	c.putToken(key, ent.Value)
	c.engine.Metrics.Refresh()
}

// RegisteredAt returns when the computation currently held for key was
// registered with Set. Refresh does not move it.
func (c *MultiStateCache) RegisteredAt(key string) (time.Time, bool) {
	ent, ok := c.store.Peek(key)
	if !ok {
		return time.Time{}, false
	}
	return ent.CreatedAt, true
}

func (c *MultiStateCache) putToken(key string, h future.Handle) {
	if c.engine.FreshnessInterval <= 0 {
		return
	}
	c.store.Put(freshnessKey(key), h, types.EntryOptions{Absolute: c.engine.FreshnessInterval})
}

/*
TryGet reports what the cache holds for key:

 1. Fresh when the freshness token is present and its future has not faulted
 2. Error when the future has faulted; both entries are purged
 3. Stale when only the value entry is left
 4. Null when nothing is left

A Fresh future may still be running; callers await it.
*/
func (c *MultiStateCache) TryGet(key string) (State, future.Handle) {
	token, hasToken := c.store.Get(freshnessKey(key))
	if hasToken && token.Value.Status() != future.Faulted {
		c.engine.Metrics.Hit()
		return Fresh, token.Value
	}

	var h future.Handle
	if hasToken {
		h = token.Value
	} else if ent, ok := c.store.Get(key); ok {
		h = ent.Value
	}

	if h == nil {
		c.engine.Metrics.Miss()
		return Null, nil
	}

	if h.Status() == future.Faulted {
		c.store.CompareAndRemove(freshnessKey(key), h)
		c.store.CompareAndRemove(key, h)
		c.engine.Metrics.Fault()
		c.engine.Logger.Warn("purged faulted cache entry",
			zap.String("key", key),
			zap.Error(h.Err()),
		)
		return Error, nil
	}

	c.engine.Metrics.Stale()
	return Stale, h
}

// SetFuture is Set for a typed future.
func SetFuture[T any](c *MultiStateCache, key string, f *future.Future[T], sliding, absolute time.Duration) {
	c.Set(key, f, sliding, absolute)
}

// TryGetAs is TryGet with the future typed as *future.Future[T]. A key
// registered with a different value type reports Null.
func TryGetAs[T any](c *MultiStateCache, key string) (State, *future.Future[T]) {
	st, h := c.TryGet(key)
	if h == nil {
		return st, nil
	}
	f, ok := h.(*future.Future[T])
	if !ok {
		return Null, nil
	}
	return st, f
}
