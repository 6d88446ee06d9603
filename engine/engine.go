package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/pxgraf/task-cache/expiration"
	"github.com/pxgraf/task-cache/types"
)

/*
CacheEngine is the policy layer shared by the store and the caches built
on top of it.

It decides:
- When an entry has expired
- How timestamps move on reads and writes
- Whether a registration is still inside the freshness window
- Where events are reported (metrics, logs)

It does NOT store data, pick shards, lock, or choose eviction victims.
*/
type CacheEngine struct {

	// Expiration controls when an entry is dropped. Nil means never.
	Expiration expiration.Strategy

	// Metrics receives lookup and removal events. Never nil.
	Metrics types.Metrics

	// Logger is never nil.
	Logger *zap.Logger

	// Clock is the time source for every timer in the cache.
	Clock types.Clock

	// FreshnessInterval is how long a registration counts as Fresh.
	// Zero or negative makes every completed entry Stale.
	FreshnessInterval time.Duration
}

// Option configures a CacheEngine.
type Option func(*CacheEngine)

func WithExpiration(s expiration.Strategy) Option {
	return func(e *CacheEngine) { e.Expiration = s }
}

func WithMetrics(m types.Metrics) Option {
	return func(e *CacheEngine) {
		if m != nil {
			e.Metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *CacheEngine) {
		if l != nil {
			e.Logger = l
		}
	}
}

func WithClock(c types.Clock) Option {
	return func(e *CacheEngine) {
		if c != nil {
			e.Clock = c
		}
	}
}

func WithFreshnessInterval(d time.Duration) Option {
	return func(e *CacheEngine) { e.FreshnessInterval = d }
}

// DefaultFreshnessInterval matches the shipped configuration.
const DefaultFreshnessInterval = 60 * time.Second

/*
NewCacheEngine creates a CacheEngine honouring per-entry sliding and
absolute timers, with no-op metrics, a no-op logger and the wall clock
unless overridden.
*/
func NewCacheEngine(opts ...Option) *CacheEngine {
	e := &CacheEngine{
		Expiration:        expiration.EntryTimers{},
		Metrics:           types.NoopMetrics{},
		Logger:            zap.NewNop(),
		Clock:             types.SystemClock{},
		FreshnessInterval: DefaultFreshnessInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *CacheEngine) Now() time.Time {
	return e.Clock.Now()
}

// IsExpired reports whether ent must be dropped at now.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration != nil && e.Expiration.IsExpired(ent, now)
}

// OnRead is called every time the store hands out an entry.
func (e *CacheEngine) OnRead(ent *types.CacheEntry, now time.Time) {
	if e.Expiration != nil {
		e.Expiration.OnAccess(ent, now)
	}
}

// OnWrite is called for every entry before it is stored.
func (e *CacheEngine) OnWrite(ent *types.CacheEntry, now time.Time) {
	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, now)
		return
	}
	ent.CreatedAt = now
	ent.LastAccessedAt = now
}

// IsFresh reports whether a registration stamped at is still fresh.
func (e *CacheEngine) IsFresh(at time.Time) bool {
	return e.Now().Sub(at) < e.FreshnessInterval
}
