package domain

import "github.com/jonboulle/clockwork"

// clock stamps metrics snapshots. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the snapshot time source. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
