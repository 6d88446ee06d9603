package api

import (
	"time"

	cache "github.com/pxgraf/task-cache"
	"github.com/pxgraf/task-cache/future"
)

/*
TaskCache is the public contract of the multi-state task cache.
Sharding, eviction, expiration and freshness tracking all stay behind it.
*/
type TaskCache interface {

	/*
		Set registers a computation for key, replacing any previous one,
		and stamps the key fresh.

		BEHAVIOR:
		---------
		- The value entry costs 1 unit of the size budget
		- sliding drops the entry after that long without reads
		- absolute drops the entry that long after Set, regardless of reads
		- A zero duration disables that timer
	*/
	Set(key string, h future.Handle, sliding, absolute time.Duration)

	/*
		Refresh stamps key fresh again without changing the registered
		computation or its timers.

		Used when a caller decides stale data is still good and wants other
		callers to stop recomputing it. Refreshing an absent key is a no-op.
	*/
	Refresh(key string)

	/*
		TryGet reports the key's state and, for Fresh and Stale, its
		computation.

		STATES:
		-------
		Fresh : registered within the freshness interval, not faulted
		Stale : past the freshness interval, still present, not faulted
		Error : the computation faulted; the key has been purged
		Null  : nothing registered

		TryGet never blocks and never returns an error.
	*/
	TryGet(key string) (cache.State, future.Handle)
}

// ResponseCache is the contract of the single-state cache for one value type.
type ResponseCache[T any] interface {
	Set(key string, f *future.Future[T], sliding, absolute time.Duration)
	Refresh(key string)

	// TryGet additionally reports Pending, without a future, while the
	// computation runs.
	TryGet(key string) (cache.State, *future.Future[T])
}

var (
	_ TaskCache             = (*cache.MultiStateCache)(nil)
	_ ResponseCache[string] = (*cache.SingleStateCache[string])(nil)
)
