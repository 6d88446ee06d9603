package shard

import "github.com/pxgraf/task-cache/types"

/*
This file defines how entries are held inside a shard.
The store itself is not synchronised: every call happens under the
owning shard's mutex, because reads also mutate (sliding timers and
eviction bookkeeping).
*/

// ShardStore is the storage a shard keeps its entries in.
type ShardStore interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry and returns it.
	Delete(string) (*types.CacheEntry, bool)

	// Range calls fn for every entry until fn returns false.
	Range(fn func(string, *types.CacheEntry) bool)

	// Len returns how many entries are stored.
	Len() int

	// Size returns the summed size cost of all stored entries.
	Size() int64
}

// mapStore is a plain map with running size accounting.
type mapStore struct {
	data map[string]*types.CacheEntry
	size int64
}

func NewMapStore() ShardStore {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	if old, ok := s.data[key]; ok {
		s.size -= old.Size
	}
	s.data[key] = ent
	s.size += ent.Size
}

func (s *mapStore) Delete(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	if !ok {
		return nil, false
	}
	delete(s.data, key)
	s.size -= ent.Size
	return ent, true
}

func (s *mapStore) Range(fn func(string, *types.CacheEntry) bool) {
	for k, v := range s.data {
		if !fn(k, v) {
			return
		}
	}
}

func (s *mapStore) Len() int { return len(s.data) }

func (s *mapStore) Size() int64 { return s.size }
