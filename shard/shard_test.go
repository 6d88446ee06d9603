package shard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxgraf/task-cache/eviction"
	"github.com/pxgraf/task-cache/types"
)

func TestMapStoreSizeAccounting(t *testing.T) {
	s := NewMapStore()

	s.Put("a", &types.CacheEntry{Key: "a", Size: 1})
	s.Put("token", &types.CacheEntry{Key: "token"})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(1), s.Size())

	// Replacing an entry swaps its cost instead of adding to it.
	s.Put("a", &types.CacheEntry{Key: "a", Size: 1})
	assert.Equal(t, int64(1), s.Size())

	ent, ok := s.Delete("a")
	require.True(t, ok)
	assert.Equal(t, "a", ent.Key)
	assert.Equal(t, int64(0), s.Size())

	_, ok = s.Delete("a")
	assert.False(t, ok)
}

func TestMapStoreRangeStopsEarly(t *testing.T) {
	s := NewMapStore()
	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("k%d", i)
		s.Put(k, &types.CacheEntry{Key: k})
	}

	seen := 0
	s.Range(func(string, *types.CacheEntry) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}

func TestHashSelectorIsStable(t *testing.T) {
	shards := []*Shard{
		NewShard(eviction.NewEvictionPolicy(eviction.LRU), 0),
		NewShard(eviction.NewEvictionPolicy(eviction.LRU), 0),
		NewShard(eviction.NewEvictionPolicy(eviction.LRU), 0),
	}
	var sel HashSelector

	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("table/%d", i)
		assert.Same(t, sel.Select(k, shards), sel.Select(k, shards))
	}
}
