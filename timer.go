package webmetrics

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/heroku/webmetrics/clock"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// Timer records the duration of exchanges into timer series of a registry.
type Timer struct {
	Registry metricsregistry.Registry
	Clock    clock.Clock

	// Logger receives precondition violations. It may be nil.
	Logger logrus.FieldLogger

	// Warnings, when set, limits how often violations are logged.
	Warnings *rate.Limiter
}

// Record adds one sample of the time elapsed since start to the series
// identified by name and tags.
//
// start must come from the same clock as Timer.Clock. A negative elapsed time
// means the caller broke that contract; the sample is logged and dropped
// rather than clamped.
func (t *Timer) Record(name string, tags Tags, start time.Time) {
	elapsed := t.now().Sub(start)
	if elapsed < 0 {
		if t.Logger != nil && (t.Warnings == nil || t.Warnings.Allow()) {
			t.Logger.WithFields(logrus.Fields{
				"metric":  name,
				"tags":    tags.String(),
				"elapsed": elapsed,
			}).Warn("negative exchange duration, dropping measurement")
		}
		return
	}

	t.Registry.GetOrRegisterTimer(name).With(tags.LabelValues()...).Record(elapsed)
}

func (t *Timer) now() time.Time {
	if t.Clock == nil {
		return clock.Default.Now()
	}
	return t.Clock.Now()
}
