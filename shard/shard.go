package shard

import (
	"sync"

	"github.com/pxgraf/task-cache/eviction"
)

/*
A Shard is one independently locked slice of the store.
Splitting the key space keeps contention low when many request
goroutines hit the cache at once.
*/
type Shard struct {

	// Store holds this shard's entries.
	Store ShardStore

	// Eviction picks victims when this shard runs out of size budget.
	// Each shard owns its policy instance.
	Eviction eviction.Policy

	// Limit is this shard's share of the size budget; 0 means unbounded.
	Limit int64

	// Mu guards Store and Eviction.
	Mu sync.Mutex
}

func NewShard(ev eviction.Policy, limit int64) *Shard {
	return &Shard{
		Store:    NewMapStore(),
		Eviction: ev,
		Limit:    limit,
	}
}
