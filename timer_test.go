package webmetrics

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/heroku/webmetrics/clock/clocktest"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
	"github.com/heroku/webmetrics/testing/testlog"
)

func TestTimerRecord(t *testing.T) {
	p := testmetrics.NewProvider(t)
	tm := &Timer{
		Registry: metricsregistry.New(p),
		Clock:    clocktest.New(t0.Add(1500 * time.Microsecond)),
	}
	tags := Tags{{StatusTag, "200"}, {URITag, "/a"}, {ExceptionTag, None}}

	tm.Record("http.server.requests", tags, t0)
	tm.Record("http.server.requests", tags, t0.Add(500*time.Microsecond))
	tm.Record("http.server.requests", tags, t0.Add(1500*time.Microsecond))

	p.CheckObservations("http.server.requests", []float64{1.5, 1, 0},
		"status", "200", "uri", "/a", "exception", "none")
}

func TestTimerDropsNegativeDuration(t *testing.T) {
	p := testmetrics.NewProvider(t)
	l, hook := testlog.New()
	tm := &Timer{
		Registry: metricsregistry.New(p),
		Clock:    clocktest.New(t0),
		Logger:   l,
	}

	tm.Record("http.client.requests", Tags{{StatusTag, "200"}}, t0.Add(time.Millisecond))

	p.CheckHistogramCount("http.client.requests", 0)
	hook.CheckLevelCount(t, logrus.WarnLevel, 1)
	hook.CheckAllContained(t, "negative exchange duration", "metric=http.client.requests", "elapsed=-1ms")
}

func TestTimerSamplesWarnings(t *testing.T) {
	p := testmetrics.NewProvider(t)
	l, hook := testlog.New()
	tm := &Timer{
		Registry: metricsregistry.New(p),
		Clock:    clocktest.New(t0),
		Logger:   l,
		Warnings: rate.NewLimiter(rate.Every(time.Hour), 2),
	}

	for i := 0; i < 5; i++ {
		tm.Record("http.client.requests", nil, t0.Add(time.Second))
	}

	hook.CheckLevelCount(t, logrus.WarnLevel, 2)
}
