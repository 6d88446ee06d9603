package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pxgraf/task-cache/types"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestEntryTimersSliding(t *testing.T) {
	var s EntryTimers
	ent := &types.CacheEntry{Sliding: time.Minute}
	s.OnWrite(ent, epoch)

	assert.False(t, s.IsExpired(ent, epoch.Add(59*time.Second)))

	// A read pushes the window forward.
	s.OnAccess(ent, epoch.Add(50*time.Second))
	assert.False(t, s.IsExpired(ent, epoch.Add(100*time.Second)))
	assert.True(t, s.IsExpired(ent, epoch.Add(110*time.Second)))
}

func TestEntryTimersAbsolute(t *testing.T) {
	var s EntryTimers
	ent := &types.CacheEntry{ExpireAt: epoch.Add(time.Minute)}
	s.OnWrite(ent, epoch)

	s.OnAccess(ent, epoch.Add(59*time.Second))
	assert.False(t, s.IsExpired(ent, epoch.Add(59*time.Second)))
	assert.True(t, s.IsExpired(ent, epoch.Add(time.Minute)))
}

func TestEntryTimersFirstDeadlineWins(t *testing.T) {
	var s EntryTimers
	ent := &types.CacheEntry{Sliding: time.Hour, ExpireAt: epoch.Add(time.Minute)}
	s.OnWrite(ent, epoch)

	s.OnAccess(ent, epoch.Add(30*time.Second))
	assert.True(t, s.IsExpired(ent, epoch.Add(2*time.Minute)))
}

func TestEntryTimersNoTimers(t *testing.T) {
	var s EntryTimers
	ent := &types.CacheEntry{}
	s.OnWrite(ent, epoch)

	assert.False(t, s.IsExpired(ent, epoch.Add(24*365*time.Hour)))
}
