package expiration

import (
	"time"

	"github.com/pxgraf/task-cache/types"
)

/*
EntryTimers honours the two independent timers carried by each entry:

  - a sliding window, pushed forward by every read, and
  - an absolute deadline, fixed at insertion.

Whichever runs out first expires the entry. An entry with neither timer
lives until it is evicted or removed.
*/
type EntryTimers struct{}

// IsExpired treats a deadline as reached at the exact instant it falls due.
func (EntryTimers) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	if !ent.ExpireAt.IsZero() && !now.Before(ent.ExpireAt) {
		return true
	}
	return ent.Sliding > 0 && now.Sub(ent.LastAccessedAt) >= ent.Sliding
}

// OnAccess restarts the sliding window.
func (EntryTimers) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

// OnWrite stamps a new entry. ExpireAt is left as the store computed it.
func (EntryTimers) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.CreatedAt = now
	ent.LastAccessedAt = now
}
