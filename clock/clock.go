// Package clock abstracts time.Now so elapsed-time measurements can be
// driven deterministically in tests.
package clock

import "time"

// Default is the wall clock. Times it returns carry Go's monotonic clock
// reading, so Sub between two of them is immune to wall clock changes.
var Default Clock = Func(time.Now)

// Clock tells you the current time.
type Clock interface {
	Now() time.Time
}

// Func is a function that returns a time.
type Func func() time.Time

// Now ensures that Func satisfies the Clock interface.
func (fn Func) Now() time.Time { return fn() }
