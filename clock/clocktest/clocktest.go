// Package clocktest provides clocks that return scripted times.
package clocktest

import (
	"sync"
	"time"

	"github.com/heroku/webmetrics/clock"
)

// New returns a test clock that will respond to Now() calls using the times
// provided, repeating the last one once the list is exhausted. It is safe
// for concurrent use.
func New(ts ...time.Time) clock.Clock {
	var mu sync.Mutex
	return clock.Func(func() (t time.Time) {
		mu.Lock()
		defer mu.Unlock()

		switch len(ts) {
		case 0:
			return
		case 1:
			return ts[0]
		}

		t, ts = ts[0], ts[1:]
		return
	})
}

// NewFromDurations returns a test clock that will respond to Now() calls
// with times that are after the current time by the passed durations.
func NewFromDurations(ds ...time.Duration) clock.Clock {
	t0 := time.Now()
	ts := make([]time.Time, 0, len(ds))
	for _, d := range ds {
		ts = append(ts, t0.Add(d))
	}
	return New(ts...)
}
