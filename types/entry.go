package types

import (
	"time"

	"github.com/pxgraf/task-cache/future"
)

// CacheEntry is one slot of the underlying store.
// Mutable fields are only touched under the owning shard's lock.
type CacheEntry struct {
	Key   string
	Value future.Handle

	// Size is the unit cost charged against the store's size limit.
	// Zero-size entries never trigger or take part in eviction.
	Size int64

	CreatedAt      time.Time
	LastAccessedAt time.Time

	Sliding  time.Duration // zero => no sliding window
	ExpireAt time.Time     // zero => no absolute deadline
}

// EntryOptions are the per-entry settings given to the store on Put.
type EntryOptions struct {
	Size int64

	// Sliding evicts the entry when it has not been read for this long.
	Sliding time.Duration

	// Absolute evicts the entry this long after insertion, regardless of reads.
	Absolute time.Duration
}
