package testmetrics

import (
	"sync"

	"github.com/go-kit/kit/metrics"
)

// Counter accumulates a value based on Add calls.
type Counter struct {
	name        string
	p           *Provider
	labelValues []string

	sync.RWMutex
	value float64
}

// Add implements metrics.Counter.
func (c *Counter) Add(delta float64) {
	c.Lock()
	defer c.Unlock()
	c.value += delta
}

// With implements metrics.Counter.
func (c *Counter) With(labelValues ...string) metrics.Counter {
	lvs := append(append([]string(nil), c.labelValues...), labelValues...)
	return c.p.newCounter(c.name, lvs...)
}

func (c *Counter) getValue() float64 {
	c.RLock()
	defer c.RUnlock()
	return c.value
}

// Gauge stores a value based on Add/Set calls.
type Gauge struct {
	name        string
	p           *Provider
	labelValues []string

	sync.RWMutex
	value float64
}

// Add implements metrics.Gauge.
func (g *Gauge) Add(delta float64) {
	g.Lock()
	defer g.Unlock()
	g.value += delta
}

// Set implements metrics.Gauge.
func (g *Gauge) Set(v float64) {
	g.Lock()
	defer g.Unlock()
	g.value = v
}

// With implements metrics.Gauge.
func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	lvs := append(append([]string(nil), g.labelValues...), labelValues...)
	return g.p.newGauge(g.name, lvs...)
}

func (g *Gauge) getValue() float64 {
	g.RLock()
	defer g.RUnlock()
	return g.value
}

// Histogram keeps every observation so tests can check them.
type Histogram struct {
	name        string
	p           *Provider
	labelValues []string

	sync.RWMutex
	observations []float64
}

// Observe implements metrics.Histogram.
func (h *Histogram) Observe(v float64) {
	h.Lock()
	defer h.Unlock()
	h.observations = append(h.observations, v)
}

// With implements metrics.Histogram.
func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	lvs := append(append([]string(nil), h.labelValues...), labelValues...)
	return h.p.newHistogram(h.name, lvs...)
}

func (h *Histogram) getObservations() []float64 {
	h.RLock()
	defer h.RUnlock()
	return append([]float64(nil), h.observations...)
}
