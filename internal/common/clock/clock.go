package clock

import "time"

// Clock abstracts wall time and deferred callbacks so timers are testable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable deferred callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports false if the
	// callback already fired or was already stopped.
	Stop() bool
}

// DefaultClock implements the Clock interface using the system clock
type DefaultClock struct{}

// Now returns the current time
func (c *DefaultClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on its own goroutine after d.
func (c *DefaultClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
