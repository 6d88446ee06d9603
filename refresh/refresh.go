// This file defines how a caller decides what to do with stale data.
// A stale entry is either still valid (re-stamp it fresh) or outdated
// (recompute it).

package refresh

import (
	"context"
	"time"
)

/*
Policy decides whether a stale entry must be recomputed.

registeredAt is when the stale computation was registered. Returning
false keeps the stale value and re-stamps it fresh, so other callers stop
asking. An error is treated by the caller as "recompute".
*/
type Policy interface {
	ShouldRecompute(ctx context.Context, key string, registeredAt time.Time) (bool, error)
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(ctx context.Context, key string, registeredAt time.Time) (bool, error)

func (f PolicyFunc) ShouldRecompute(ctx context.Context, key string, registeredAt time.Time) (bool, error) {
	return f(ctx, key, registeredAt)
}

// Always recomputes every stale entry.
type Always struct{}

func (Always) ShouldRecompute(context.Context, string, time.Time) (bool, error) { return true, nil }

// Never keeps stale entries until their own timers drop them.
type Never struct{}

func (Never) ShouldRecompute(context.Context, string, time.Time) (bool, error) { return false, nil }

// LastUpdatedFunc reports when the source data behind key last changed.
type LastUpdatedFunc func(ctx context.Context, key string) (time.Time, error)

/*
UpdatedSince recomputes only when the source reports a change after the
stale entry was registered. This is the cheap metadata check used for
statistics tables: asking for a table's last-updated time is far cheaper
than rebuilding a visualization from it.
*/
func UpdatedSince(lastUpdated LastUpdatedFunc) Policy {
	return PolicyFunc(func(ctx context.Context, key string, registeredAt time.Time) (bool, error) {
		updated, err := lastUpdated(ctx, key)
		if err != nil {
			return true, err
		}
		return updated.After(registeredAt), nil
	})
}
