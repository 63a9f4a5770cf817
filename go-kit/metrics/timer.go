package metrics

import (
	"time"

	kitmetrics "github.com/go-kit/kit/metrics"
)

// DefaultTimingUnit is the resolution timers report durations in.
const DefaultTimingUnit = time.Millisecond

// A Timer records durations into a series selected by label values.
type Timer interface {
	With(labelValues ...string) Timer
	Record(d time.Duration)
}

// histogramTimer adapts a go-kit Histogram to the Timer interface.
type histogramTimer struct {
	h    kitmetrics.Histogram
	unit time.Duration
}

// NewHistogramTimer returns a Timer which observes durations on h, expressed
// in unit. A zero unit means DefaultTimingUnit.
func NewHistogramTimer(h kitmetrics.Histogram, unit time.Duration) Timer {
	if unit <= 0 {
		unit = DefaultTimingUnit
	}
	return histogramTimer{h: h, unit: unit}
}

// With implements Timer.
func (t histogramTimer) With(labelValues ...string) Timer {
	return histogramTimer{h: t.h.With(labelValues...), unit: t.unit}
}

// Record implements Timer. Callers are responsible for passing non-negative
// durations.
func (t histogramTimer) Record(d time.Duration) {
	t.h.Observe(float64(d) / float64(t.unit))
}

// MeasureSince records the time elapsed since t0 on t. It's intended to be
// called via defer, e.g. defer MeasureSince(t, time.Now()).
func MeasureSince(t Timer, t0 time.Time) {
	t.Record(time.Since(t0))
}
