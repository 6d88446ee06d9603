package cache

// State is the outcome of a TryGet.
type State int

const (
	// Null means nothing is registered for the key.
	Null State = iota

	// Fresh means the value is inside the freshness window and can be used
	// without recomputation.
	Fresh

	// Stale means the value is past the freshness window but still present.
	Stale

	// Pending means the registered computation has not completed yet.
	// Only the single-state cache reports it.
	Pending

	// Error means the registered computation faulted. The entry has been
	// purged and the key needs a new Set.
	Error
)

func (s State) String() string {
	switch s {
	case Null:
		return "null"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Pending:
		return "pending"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}
