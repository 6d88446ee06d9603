package eviction

import "fmt"

/*
This file defines how a shard decides what to drop when it runs out of
size budget. Only entries with a non-zero size are tracked by a policy;
zero-size entries (freshness tokens) leave on their own timers.
*/

/*
Policy is the interface every eviction strategy follows.
Policies are not safe for concurrent use; the owning shard serialises
all calls under its lock.
*/
type Policy interface {

	// OnGet is called whenever a tracked key is read.
	// LRU moves it to the front, LFU bumps its counter, FIFO ignores it.
	OnGet(string)

	// OnPut is called when a key is inserted or overwritten.
	OnPut(string)

	// Remove drops bookkeeping for a key removed outside of eviction
	// (expiry, fault purge, explicit removal).
	Remove(string)

	// Evict picks a victim, forgets it and returns its key.
	// It returns "" when nothing is tracked.
	Evict() string

	// Len reports how many keys are tracked.
	Len() int
}

// PolicyType names a supported eviction strategy.
type PolicyType string

const (
	// LRU evicts the key that has not been read for the longest time.
	LRU PolicyType = "LRU"

	// LFU evicts a key with the lowest read count.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted key, regardless of reads.
	FIFO PolicyType = "FIFO"
)

// Parse maps a configuration string onto a PolicyType.
func Parse(s string) (PolicyType, error) {
	switch t := PolicyType(s); t {
	case LRU, LFU, FIFO:
		return t, nil
	default:
		return "", fmt.Errorf("eviction: unknown policy %q", s)
	}
}

// NewEvictionPolicy builds a fresh policy instance of the given type.
func NewEvictionPolicy(t PolicyType) Policy {
	switch t {
	case LRU:
		return newLRU()
	case LFU:
		return newLFU()
	case FIFO:
		return newFIFO()
	default:
		panic("unknown eviction policy")
	}
}
