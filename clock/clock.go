// Package clock abstracts wall time and one-shot timers so the session
// refresh cycle and the route guard can be driven deterministically.
package clock

import "time"

type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer, false if it had already fired or been stopped.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type system struct{}

// System returns the process clock backed by the time package.
func System() Clock {
	return system{}
}

func (system) Now() time.Time {
	return time.Now()
}

func (system) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
