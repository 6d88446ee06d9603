package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pxgraf/task-cache/engine"
	"github.com/pxgraf/task-cache/eviction"
	"github.com/pxgraf/task-cache/future"
	"github.com/pxgraf/task-cache/types"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func stampCount[T any](c *SingleStateCache[T]) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stamps)
}

func TestSingleStateStampFollowsEntry(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := engine.NewCacheEngine(engine.WithClock(clock))
	c := NewSingleStateCache[int](NewShardedStore(1, 1, eviction.LRU, e))

	c.Set("a", future.Completed(1), 0, time.Minute)
	assert.Equal(t, 1, stampCount(c))

	// Evicting "a" to make room drops its stamp with it.
	c.Set("b", future.Completed(2), 0, time.Minute)
	assert.Equal(t, 1, stampCount(c))
	_, ok := c.stamps["a"]
	assert.False(t, ok)

	// Expiry does the same.
	clock.now = clock.now.Add(time.Minute)
	st, _ := c.TryGet("b")
	assert.Equal(t, Null, st)
	assert.Equal(t, 0, stampCount(c))
}

func TestSingleStateLateNoticeKeepsNewerStamp(t *testing.T) {
	e := engine.NewCacheEngine()
	c := NewSingleStateCache[int](NewShardedStore(1, 0, eviction.LRU, e))

	old := future.Completed(1)
	c.Set("k", future.Completed(2), time.Minute, time.Hour)

	c.forget("k", &types.CacheEntry{Key: "k", Value: old}, Expired)
	assert.Equal(t, 1, stampCount(c))

	st, _ := c.TryGet("k")
	assert.Equal(t, Fresh, st)
}

func TestSingleStateConcurrentSetsStampTheStoredFuture(t *testing.T) {
	e := engine.NewCacheEngine()
	c := NewSingleStateCache[int](NewShardedStore(1, 0, eviction.LRU, e))

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(v int) {
				defer wg.Done()
				c.Set("k", future.Completed(v), time.Minute, time.Hour)
			}(i)
		}
		wg.Wait()

		ent, ok := c.store.Peek("k")
		assert.True(t, ok)
		c.mu.RLock()
		st := c.stamps["k"]
		c.mu.RUnlock()
		assert.Same(t, ent.Value, st.handle)

		state, _ := c.TryGet("k")
		assert.Equal(t, Fresh, state)
	}
}

func TestSingleStateRefreshSkipsReplacedFuture(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := engine.NewCacheEngine(engine.WithClock(clock))
	c := NewSingleStateCache[int](NewShardedStore(1, 0, eviction.LRU, e))

	c.Set("k", future.Completed(1), time.Hour, time.Hour)
	clock.now = clock.now.Add(engine.DefaultFreshnessInterval)

	// A stamp belonging to another future is left alone.
	other := future.Completed(2)
	c.stamp("k", other, clock.now)
	c.Refresh("k")
	assert.Same(t, other, c.stamps["k"].handle)
}

func TestFreshnessKeyDoesNotCollide(t *testing.T) {
	assert.NotEqual(t, "k", freshnessKey("k"))
	assert.NotEqual(t, freshnessKey("a"), freshnessKey("b"))
}
