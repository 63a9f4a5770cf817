package runtimemetrics

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	kitmetrics "github.com/go-kit/kit/metrics"

	"github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// DefaultInterval is how often Run collects when no interval is given.
const DefaultInterval = 20 * time.Second

// Collector collects metrics about the Go runtime.
type Collector struct {
	goroutines      kitmetrics.Gauge
	allocBytes      kitmetrics.Gauge
	sysBytes        kitmetrics.Gauge
	totalAllocBytes kitmetrics.Gauge
	nextGCBytes     kitmetrics.Gauge
	gcPauseDuration kitmetrics.Histogram
	collectDuration metrics.Timer

	interval time.Duration

	// lastGCNum is the GC cycle of the previous collection, so that only
	// new pauses are observed.
	lastGCNum int64
}

// NewCollector returns a collector whose metrics are registered with reg.
// A non-positive interval selects DefaultInterval.
func NewCollector(reg metricsregistry.Registry, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{
		goroutines:      reg.GetOrRegisterGauge("go.goroutines"),
		allocBytes:      reg.GetOrRegisterGauge("go.mem.alloc-bytes"),
		sysBytes:        reg.GetOrRegisterGauge("go.mem.sys-bytes"),
		totalAllocBytes: reg.GetOrRegisterGauge("go.mem.total-alloc-bytes"),
		nextGCBytes:     reg.GetOrRegisterGauge("go.gc.next-target-heap-size-bytes"),
		gcPauseDuration: reg.GetOrRegisterExplicitHistogram("go.gc.pause-duration.ms", metrics.FiveSecondDistribution),
		collectDuration: reg.GetOrRegisterTimer("go.runtime.collect-duration"),
		interval:        interval,
	}
}

// Run collects once per interval until ctx is done.
func (c *Collector) Run(ctx context.Context) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()

	c.Collect()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			c.Collect()
		}
	}
}

// Collect reads the runtime statistics and updates the metrics.
func (c *Collector) Collect() {
	defer metrics.MeasureSince(c.collectDuration, time.Now())

	c.goroutines.Set(float64(runtime.NumGoroutine()))

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.allocBytes.Set(float64(ms.Alloc))
	c.sysBytes.Set(float64(ms.Sys))
	c.totalAllocBytes.Set(float64(ms.TotalAlloc))
	c.nextGCBytes.Set(float64(ms.NextGC))

	var gs debug.GCStats
	debug.ReadGCStats(&gs)

	// The runtime keeps a bounded pause history; observe what is left of it.
	unobserved := int(gs.NumGC - c.lastGCNum)
	if unobserved > len(gs.Pause) {
		unobserved = len(gs.Pause)
	}
	for i := 0; i < unobserved; i++ {
		c.gcPauseDuration.Observe(float64(gs.Pause[i]) / float64(time.Millisecond))
	}

	c.lastGCNum = gs.NumGC
}
