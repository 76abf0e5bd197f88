package domain

import "time"

// Clock abstracts wall-clock reads so estimation can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
