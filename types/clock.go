package types

import "time"

// Clock is the time source of the cache. Tests swap it for a manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
