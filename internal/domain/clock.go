package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Detection timestamps, alert first-seen/last-updated times, and the seasonal
// month all come from here. Production code uses the real clock; tests inject
// a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the package time source for stages that need the current
// time or month.
func Clock() clockwork.Clock { return clock }
