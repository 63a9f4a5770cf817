// Package testmetrics provides an in-memory metrics.Provider whose
// registered series can be checked by tests.
package testmetrics

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/kit/metrics"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

var _ xmetrics.Provider = (*Provider)(nil)

// Provider collects registered metrics for testing.
type Provider struct {
	t testing.TB

	sync.Mutex
	counters     map[string]*Counter
	gauges       map[string]*Gauge
	histograms   map[string]*Histogram
	cardCounters map[string]*xmetrics.HLLCounter
	stopped      bool
}

// NewProvider constructs a test provider which can later be checked.
func NewProvider(t testing.TB) *Provider {
	return &Provider{
		t:            t,
		counters:     make(map[string]*Counter),
		gauges:       make(map[string]*Gauge),
		histograms:   make(map[string]*Histogram),
		cardCounters: make(map[string]*xmetrics.HLLCounter),
	}
}

// Stop makes it Provider compliant.
func (p *Provider) Stop() {
	p.Lock()
	defer p.Unlock()
	p.stopped = true
}

// NewCounter implements metrics.Provider.
func (p *Provider) NewCounter(name string) metrics.Counter {
	return p.newCounter(name)
}

func (p *Provider) newCounter(name string, labelValues ...string) metrics.Counter {
	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	if _, ok := p.counters[k]; !ok {
		p.counters[k] = &Counter{name: name, p: p, labelValues: labelValues}
	}
	return p.counters[k]
}

// NewGauge implements metrics.Provider.
func (p *Provider) NewGauge(name string) metrics.Gauge {
	return p.newGauge(name)
}

func (p *Provider) newGauge(name string, labelValues ...string) metrics.Gauge {
	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	if _, ok := p.gauges[k]; !ok {
		p.gauges[k] = &Gauge{name: name, p: p, labelValues: labelValues}
	}
	return p.gauges[k]
}

// NewHistogram implements metrics.Provider.
func (p *Provider) NewHistogram(name string, _ int) metrics.Histogram {
	return p.newHistogram(name)
}

// NewExplicitHistogram implements metrics.Provider.
func (p *Provider) NewExplicitHistogram(name string, _ xmetrics.DistributionFunc) metrics.Histogram {
	return p.newHistogram(name)
}

func (p *Provider) newHistogram(name string, labelValues ...string) metrics.Histogram {
	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	if _, ok := p.histograms[k]; !ok {
		p.histograms[k] = &Histogram{name: name, p: p, labelValues: labelValues}
	}
	return p.histograms[k]
}

// NewCardinalityCounter implements metrics.Provider.
func (p *Provider) NewCardinalityCounter(name string) xmetrics.CardinalityCounter {
	p.Lock()
	defer p.Unlock()

	if _, ok := p.cardCounters[name]; !ok {
		p.cardCounters[name] = xmetrics.NewHLLCounter(name)
	}
	return p.cardCounters[name]
}

// CheckCounter checks that there is a registered counter with the name,
// label values and value provided.
func (p *Provider) CheckCounter(name string, v float64, labelValues ...string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	c, ok := p.counters[k]
	if !ok {
		p.t.Fatalf("no counter named %s out of available counters: \n%s", k, available(p.counters))
	}

	if got := c.getValue(); got != v {
		p.t.Fatalf("%v = %v, want %v", k, got, v)
	}
}

// CheckNoCounter checks that there is no registered counter with the name
// provided.
func (p *Provider) CheckNoCounter(name string, labelValues ...string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	if _, ok := p.counters[k]; ok {
		p.t.Fatalf("a counter named %s was found", k)
	}
}

// CheckGauge checks that there is a registered gauge with the name and value
// provided.
func (p *Provider) CheckGauge(name string, v float64, labelValues ...string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	g, ok := p.gauges[k]
	if !ok {
		p.t.Fatalf("no gauge named %s out of available gauges: \n%s", k, available(p.gauges))
	}
	if got := g.getValue(); got != v {
		p.t.Fatalf("%v = %v, want %v", k, got, v)
	}
}

// CheckGaugeNonZero checks that there is a registered gauge with the name
// provided and that its value is not zero.
func (p *Provider) CheckGaugeNonZero(name string, labelValues ...string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	g, ok := p.gauges[k]
	if !ok {
		p.t.Fatalf("no gauge named %s out of available gauges: \n%s", k, available(p.gauges))
	}
	if g.getValue() == 0 {
		p.t.Fatalf("%v = 0, want non-zero", k)
	}
}

// CheckObservationCount checks that there is a histogram with the name,
// label values and number of observations provided.
func (p *Provider) CheckObservationCount(name string, n int, labelValues ...string) {
	p.t.Helper()

	if got := len(p.getObservations(name, labelValues...)); got != n {
		p.t.Fatalf("len(%v) = %v, want %v", keyFor(name, labelValues...), got, n)
	}
}

// CheckObservations checks that there is a histogram with the name and
// observations provided.
func (p *Provider) CheckObservations(name string, obs []float64, labelValues ...string) {
	p.t.Helper()

	got := p.getObservations(name, labelValues...)
	if !reflect.DeepEqual(got, obs) {
		p.t.Fatalf("%v = %v, want %v", keyFor(name, labelValues...), got, obs)
	}
}

// CheckObservationsMinMax checks that there is a histogram with the name and
// that all of its observations fall within min and max.
func (p *Provider) CheckObservationsMinMax(name string, min, max float64, labelValues ...string) {
	p.t.Helper()

	for _, o := range p.getObservations(name, labelValues...) {
		if o < min || o > max {
			p.t.Fatalf("%v: got %f want %f..%f", keyFor(name, labelValues...), o, min, max)
		}
	}
}

// CheckNoHistogram checks that no histogram was registered under the name
// and label values provided.
func (p *Provider) CheckNoHistogram(name string, labelValues ...string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	if h, ok := p.histograms[k]; ok && len(h.getObservations()) > 0 {
		p.t.Fatalf("a histogram named %s was found", k)
	}
}

// CheckHistogramCount checks how many distinct series with observations were
// registered under name, regardless of their label values.
func (p *Provider) CheckHistogramCount(name string, n int) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	var got int
	for _, h := range p.histograms {
		if h.name == name && len(h.getObservations()) > 0 {
			got++
		}
	}
	if got != n {
		p.t.Fatalf("%d series named %s, want %d out of: \n%s", got, name, n, available(p.histograms))
	}
}

// CheckCardinalityCounter checks that there is a registered cardinality
// counter with the name and estimate provided.
func (p *Provider) CheckCardinalityCounter(name string, estimate uint64) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	cc, ok := p.cardCounters[name]
	if !ok {
		p.t.Fatalf("no cardinality counter named %s out of available cardinality counters: \n%s", name, available(p.cardCounters))
	}
	if got := cc.Estimate(); got != estimate {
		p.t.Fatalf("%v = %v, want %v", name, got, estimate)
	}
}

// CheckNoCardinalityCounter checks that no cardinality counter was
// registered under name.
func (p *Provider) CheckNoCardinalityCounter(name string) {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	if _, ok := p.cardCounters[name]; ok {
		p.t.Fatalf("a cardinality counter named %s was found", name)
	}
}

// CheckStopped verifies that a provider has been Stop'd.
func (p *Provider) CheckStopped() {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	if !p.stopped {
		p.t.Fatal("provider is not stopped")
	}
}

// PrintObservationCount prints the number of observations of a histogram.
// It is meant for examples.
func (p *Provider) PrintObservationCount(name string, labelValues ...string) {
	p.Lock()
	h, ok := p.histograms[keyFor(name, labelValues...)]
	p.Unlock()

	n := 0
	if ok {
		n = len(h.getObservations())
	}
	fmt.Printf("%s: %d\n", keyFor(name, labelValues...), n)
}

func (p *Provider) getObservations(name string, labelValues ...string) []float64 {
	p.t.Helper()

	p.Lock()
	defer p.Unlock()

	k := keyFor(name, labelValues...)
	h, ok := p.histograms[k]
	if !ok {
		p.t.Fatalf("no histogram named %s out of available histograms: \n%s", k, available(p.histograms))
	}
	return h.getObservations()
}

func keyFor(name string, labelValues ...string) string {
	if len(labelValues) == 0 {
		return name
	}
	return name + "." + strings.Join(labelValues, ":")
}

func available[T any](m map[string]T) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}
