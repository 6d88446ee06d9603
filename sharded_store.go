package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pxgraf/task-cache/engine"
	evict "github.com/pxgraf/task-cache/eviction"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/shard"
	"github.com/pxgraf/task-cache/types"
)

// RemovalReason says why the store dropped an entry.
type RemovalReason int

const (
	// Removed means a caller asked for the removal.
	Removed RemovalReason = iota

	// Replaced means a Put overwrote the entry.
	Replaced

	// Evicted means the entry was dropped to stay within the size limit.
	Evicted

	// Expired means the sliding or absolute timer ran out.
	Expired
)

func (r RemovalReason) String() string {
	switch r {
	case Removed:
		return "removed"
	case Replaced:
		return "replaced"
	case Evicted:
		return "evicted"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// RemovalFunc is notified after an entry has left the store.
// It runs outside of any shard lock.
type RemovalFunc func(key string, ent *types.CacheEntry, reason RemovalReason)

type removal struct {
	ent    *types.CacheEntry
	reason RemovalReason
}

/*
ShardedStore is the sized, sharded in-memory store underneath the task
caches. It ties together:
- shards, each with its own lock and eviction policy
- size accounting against a global limit split across shards
- per-entry sliding and absolute expiration
- removal notifications
- an optional background sweep of expired entries
*/
type ShardedStore struct {
	shards   []*shard.Shard
	engine   *engine.CacheEngine
	selector shard.Selector

	// sizeLimit is the total size budget; 0 means unbounded.
	sizeLimit int64

	cbMu      sync.RWMutex
	callbacks []RemovalFunc

	sweepInterval time.Duration
	stop          chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// StoreOption configures a ShardedStore.
type StoreOption func(*ShardedStore)

// WithSweepInterval starts a background sweep of expired entries.
// Without it, expired entries are only dropped when touched.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(s *ShardedStore) { s.sweepInterval = d }
}

// WithRemovalCallback registers fn at construction time.
func WithRemovalCallback(fn RemovalFunc) StoreOption {
	return func(s *ShardedStore) { s.callbacks = append(s.callbacks, fn) }
}

/*
NewShardedStore builds a store of the given shard count and total size
limit. The limit is split across shards as evenly as possible so the
summed budget never exceeds it; if there are fewer budget units than
shards, the shard count shrinks to match.
*/
func NewShardedStore(
	shards int,
	sizeLimit int64,
	eviction evict.PolicyType,
	engine *engine.CacheEngine,
	opts ...StoreOption,
) *ShardedStore {
	if shards < 1 {
		shards = 1
	}
	if sizeLimit < 0 {
		sizeLimit = 0
	}
	if sizeLimit > 0 && int64(shards) > sizeLimit {
		shards = int(sizeLimit)
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		var limit int64
		if sizeLimit > 0 {
			limit = sizeLimit / int64(shards)
			if int64(i) < sizeLimit%int64(shards) {
				limit++
			}
		}
		s[i] = shard.NewShard(evict.NewEvictionPolicy(eviction), limit)
	}

	st := &ShardedStore{
		shards:    s,
		engine:    engine,
		selector:  shard.HashSelector{},
		sizeLimit: sizeLimit,
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(st)
	}

	if st.sweepInterval > 0 {
		st.wg.Add(1)
		go st.sweepLoop()
	}
	return st
}

// Engine returns the policy layer the store was built with.
func (s *ShardedStore) Engine() *engine.CacheEngine {
	return s.engine
}

// OnRemoval registers fn for every future removal.
func (s *ShardedStore) OnRemoval(fn RemovalFunc) {
	s.cbMu.Lock()
	s.callbacks = append(s.callbacks, fn)
	s.cbMu.Unlock()
}

/*
Put stores h under key, replacing any previous entry. A sized entry that
does not fit first clears the shard's expired entries, then evicts
victims picked by the shard's policy until it fits.
Put reports false only when the entry alone is larger than its shard's
whole budget; such an entry is not stored.
*/
func (s *ShardedStore) Put(key string, h future.Handle, opts types.EntryOptions) bool {
	return s.PutWith(key, h, opts, nil)
}

/*
PutWith is Put with a hook. onStored runs under the shard lock right
after the entry is stored, so no other write to the same key can slip in
between. It must not call back into the store.
*/
func (s *ShardedStore) PutWith(key string, h future.Handle, opts types.EntryOptions, onStored func(*types.CacheEntry)) bool {
	now := s.engine.Now()
	ent := &types.CacheEntry{
		Key:     key,
		Value:   h,
		Size:    max(opts.Size, 0),
		Sliding: max(opts.Sliding, 0),
	}
	if opts.Absolute > 0 {
		ent.ExpireAt = now.Add(opts.Absolute)
	}
	s.engine.OnWrite(ent, now)

	sh := s.selector.Select(key, s.shards)

	sh.Mu.Lock()
	if sh.Limit > 0 && ent.Size > sh.Limit {
		sh.Mu.Unlock()
		s.engine.Logger.Warn("cache entry larger than shard budget",
			zap.String("key", key),
			zap.Int64("size", ent.Size),
			zap.Int64("shard_limit", sh.Limit),
		)
		return false
	}

	var removed []removal
	if old, ok := sh.Store.Delete(key); ok {
		sh.Eviction.Remove(key)
		removed = append(removed, removal{old, Replaced})
	}

	if ent.Size > 0 && sh.Limit > 0 {
		if sh.Store.Size()+ent.Size > sh.Limit {
			removed = append(removed, s.dropExpired(sh, now)...)
		}
		for sh.Store.Size()+ent.Size > sh.Limit {
			victim := sh.Eviction.Evict()
			if victim == "" {
				break
			}
			if v, ok := sh.Store.Delete(victim); ok {
				removed = append(removed, removal{v, Evicted})
			}
		}
	}

	sh.Store.Put(key, ent)
	if ent.Size > 0 {
		sh.Eviction.OnPut(key)
	}
	if onStored != nil {
		onStored(ent)
	}
	sh.Mu.Unlock()

	s.notify(removed)
	return true
}

/*
Get returns the live entry for key. Reading restarts the entry's sliding
window and counts as a use for the eviction policy. An entry found
expired is dropped and reported as absent.
*/
func (s *ShardedStore) Get(key string) (*types.CacheEntry, bool) {
	sh := s.selector.Select(key, s.shards)

	sh.Mu.Lock()
	ent, ok := sh.Store.Get(key)
	if !ok {
		sh.Mu.Unlock()
		return nil, false
	}

	now := s.engine.Now()
	if s.engine.IsExpired(ent, now) {
		sh.Store.Delete(key)
		sh.Eviction.Remove(key)
		sh.Mu.Unlock()
		s.notify([]removal{{ent, Expired}})
		return nil, false
	}

	s.engine.OnRead(ent, now)
	if ent.Size > 0 {
		sh.Eviction.OnGet(key)
	}
	sh.Mu.Unlock()
	return ent, true
}

// Peek returns the live entry for key without counting it as a read.
// An expired entry is reported absent but left for Get or Sweep to drop.
func (s *ShardedStore) Peek(key string) (*types.CacheEntry, bool) {
	sh := s.selector.Select(key, s.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	ent, ok := sh.Store.Get(key)
	if !ok || s.engine.IsExpired(ent, s.engine.Now()) {
		return nil, false
	}
	return ent, true
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *ShardedStore) Remove(key string) bool {
	return s.removeIf(key, nil)
}

// CompareAndRemove deletes key only while it still holds h, so a purge
// never drops a newer registration that raced in.
func (s *ShardedStore) CompareAndRemove(key string, h future.Handle) bool {
	return s.removeIf(key, func(ent *types.CacheEntry) bool { return ent.Value == h })
}

func (s *ShardedStore) removeIf(key string, match func(*types.CacheEntry) bool) bool {
	sh := s.selector.Select(key, s.shards)

	sh.Mu.Lock()
	ent, ok := sh.Store.Get(key)
	if !ok || (match != nil && !match(ent)) {
		sh.Mu.Unlock()
		return false
	}
	sh.Store.Delete(key)
	sh.Eviction.Remove(key)
	sh.Mu.Unlock()

	s.notify([]removal{{ent, Removed}})
	return true
}

// Sweep drops every expired entry now and returns how many it dropped.
func (s *ShardedStore) Sweep() int {
	total := 0
	for _, sh := range s.shards {
		sh.Mu.Lock()
		removed := s.dropExpired(sh, s.engine.Now())
		sh.Mu.Unlock()

		s.notify(removed)
		total += len(removed)
	}
	return total
}

// dropExpired deletes the shard's expired entries. The caller holds sh.Mu.
func (s *ShardedStore) dropExpired(sh *shard.Shard, now time.Time) []removal {
	var removed []removal
	sh.Store.Range(func(_ string, ent *types.CacheEntry) bool {
		if s.engine.IsExpired(ent, now) {
			removed = append(removed, removal{ent, Expired})
		}
		return true
	})
	for _, r := range removed {
		sh.Store.Delete(r.ent.Key)
		sh.Eviction.Remove(r.ent.Key)
	}
	return removed
}

// Len returns the number of stored entries, sized or not.
func (s *ShardedStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.Mu.Lock()
		n += sh.Store.Len()
		sh.Mu.Unlock()
	}
	return n
}

// Size returns the summed size cost of all stored entries.
func (s *ShardedStore) Size() int64 {
	var n int64
	for _, sh := range s.shards {
		sh.Mu.Lock()
		n += sh.Store.Size()
		sh.Mu.Unlock()
	}
	return n
}

// SizeLimit returns the configured total budget; 0 means unbounded.
func (s *ShardedStore) SizeLimit() int64 {
	return s.sizeLimit
}

// Close stops the background sweep. The store stays usable afterwards.
func (s *ShardedStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
}

func (s *ShardedStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.engine.Logger.Debug("swept expired cache entries", zap.Int("count", n))
			}
		case <-s.stop:
			return
		}
	}
}

func (s *ShardedStore) notify(removed []removal) {
	if len(removed) == 0 {
		return
	}

	for _, r := range removed {
		switch r.reason {
		case Evicted:
			s.engine.Metrics.Eviction()
			s.engine.Logger.Debug("cache entry evicted", zap.String("key", r.ent.Key))
		case Expired:
			s.engine.Metrics.Expire()
			s.engine.Logger.Debug("cache entry expired", zap.String("key", r.ent.Key))
		}
	}

	s.cbMu.RLock()
	callbacks := s.callbacks
	s.cbMu.RUnlock()

	for _, r := range removed {
		for _, fn := range callbacks {
			fn(r.ent.Key, r.ent, r.reason)
		}
	}
}
