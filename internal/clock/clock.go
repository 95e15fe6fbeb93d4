// Package clock abstracts the wall clock so that time-dependent rules
// (screening-in-the-future checks, reservation expiry) can be tested with a
// fixed instant instead of time.Now.
package clock

import "time"

// Clock supplies the current instant.  All times in this service are UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by the real wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a single instant.  Intended for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
