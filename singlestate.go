package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/types"
)

type freshnessStamp struct {
	at     time.Time
	handle future.Handle
}

/*
SingleStateCache holds one computation of type T per key and derives its
state from the future and a side map of registration times:

  - Pending while the future runs
  - Error once it faults (the entry is purged)
  - Fresh or Stale once it succeeds, by comparing the registration time
    against the freshness interval

A side stamp is dropped together with its store entry. Stamps are tied to
the future they were taken for, so a late removal notice for an old
future never clears the stamp of a newer one.
*/
type SingleStateCache[T any] struct {
	store  *ShardedStore
	engine *engine.CacheEngine

	mu     sync.RWMutex
	stamps map[string]freshnessStamp
}

func NewSingleStateCache[T any](store *ShardedStore) *SingleStateCache[T] {
	c := &SingleStateCache[T]{
		store:  store,
		engine: store.Engine(),
		stamps: make(map[string]freshnessStamp),
	}
	store.OnRemoval(c.forget)
	return c
}

// Store exposes the underlying store, mainly for size introspection.
func (c *SingleStateCache[T]) Store() *ShardedStore {
	return c.store
}

// Set registers f for key and stamps it fresh. The stamp is taken while
// the store still holds the shard lock, so concurrent Sets of one key
// always leave the stamp on the future that won.
func (c *SingleStateCache[T]) Set(key string, f *future.Future[T], sliding, absolute time.Duration) {
	c.store.PutWith(key, f, types.EntryOptions{
		Size:     1,
		Sliding:  sliding,
		Absolute: absolute,
	}, func(ent *types.CacheEntry) {
		c.stamp(key, ent.Value, ent.CreatedAt)
	})
}

// Refresh re-stamps key fresh. It is a no-op when the key holds nothing
// or when a newer Set has already replaced the future it found.
func (c *SingleStateCache[T]) Refresh(key string) {
	ent, ok := c.store.Get(key)
	if !ok {
		return
	}

	c.mu.Lock()
	st, stamped := c.stamps[key]
	if stamped && st.handle != ent.Value {
		c.mu.Unlock()
		return
	}
	c.stamps[key] = freshnessStamp{at: c.engine.Now(), handle: ent.Value}
	c.mu.Unlock()

	c.engine.Metrics.Refresh()
}

// TryGet reports what the cache holds for key. Only Fresh and Stale come
// with a future.
func (c *SingleStateCache[T]) TryGet(key string) (State, *future.Future[T]) {
	ent, ok := c.store.Get(key)
	if !ok {
		c.engine.Metrics.Miss()
		return Null, nil
	}
	f, ok := ent.Value.(*future.Future[T])
	if !ok {
		c.engine.Metrics.Miss()
		return Null, nil
	}

	switch f.Status() {
	case future.Pending:
		c.engine.Metrics.Pending()
		return Pending, nil
	case future.Faulted:
		c.store.CompareAndRemove(key, f)
		c.engine.Metrics.Fault()
		c.engine.Logger.Warn("purged faulted cache entry",
			zap.String("key", key),
			zap.Error(f.Err()),
		)
		return Error, nil
	}

	c.mu.RLock()
	st, ok := c.stamps[key]
	c.mu.RUnlock()

	if ok && st.handle == future.Handle(f) && c.engine.IsFresh(st.at) {
		c.engine.Metrics.Hit()
		return Fresh, f
	}
	c.engine.Metrics.Stale()
	return Stale, f
}

// Remove drops key and its stamp.
func (c *SingleStateCache[T]) Remove(key string) {
	c.store.Remove(key)
}

func (c *SingleStateCache[T]) stamp(key string, h future.Handle, at time.Time) {
	c.mu.Lock()
	c.stamps[key] = freshnessStamp{at: at, handle: h}
	c.mu.Unlock()
}

func (c *SingleStateCache[T]) forget(key string, ent *types.CacheEntry, reason RemovalReason) {
	if reason == Replaced {
		return
	}
	c.mu.Lock()
	if st, ok := c.stamps[key]; ok && st.handle == ent.Value {
		delete(c.stamps, key)
	}
	c.mu.Unlock()
}
