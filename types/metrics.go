package types

// This file defines how the cache reports what it is doing.

/*
Metrics receives one call per cache event.
Lookups report exactly one of Hit, Stale, Pending, Miss or Fault.
*/
type Metrics interface {

	// Hit is called when a lookup finds a fresh entry.
	Hit()

	// Stale is called when a lookup finds an entry past its freshness window.
	Stale()

	// Pending is called when a lookup finds an entry whose future has not completed.
	Pending()

	// Miss is called when a lookup finds nothing.
	Miss()

	// Fault is called when a lookup finds a faulted future and purges it.
	Fault()

	// Eviction is called when an entry is removed to stay within the size limit.
	Eviction()

	// Expire is called when an entry is removed because a sliding or absolute timer ran out.
	Expire()

	// Refresh is called when the freshness of an existing entry is re-stamped.
	Refresh()
}

/*
NoopMetrics ignores every event so the cache never needs nil checks.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Stale()    {}
func (NoopMetrics) Pending()  {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Fault()    {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Expire()   {}
func (NoopMetrics) Refresh()  {}
