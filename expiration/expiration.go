// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/pxgraf/task-cache/types"
)

/*
Strategy decides when an entry is too old to be served.
The store calls it under the shard lock, so implementations may mutate
the entry's timestamps freely.
*/
type Strategy interface {

	// IsExpired reports whether the entry must be dropped at now.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnAccess is called whenever an entry is read successfully.
	OnAccess(*types.CacheEntry, time.Time)

	// OnWrite is called when an entry is inserted or replaced.
	OnWrite(*types.CacheEntry, time.Time)
}
