// Package metricsregistry provides utilities for working with dynamically
// created metrics.
package metricsregistry

import (
	"sync"

	kitmetrics "github.com/go-kit/kit/metrics"

	"github.com/heroku/webmetrics/go-kit/metrics"
)

// A Registry holds references to a set of metrics by name. It's guaranteed
// to keep returning the same metric given the same name and type. All
// implementations are also required to be thread safe.
//
// Series with label values are selected with With on the returned metric;
// providers cache those by name and label values, so repeated lookups with
// identical tags accumulate into a single series.
type Registry interface {
	GetOrRegisterCounter(name string) kitmetrics.Counter
	GetOrRegisterGauge(name string) kitmetrics.Gauge
	GetOrRegisterHistogram(name string, buckets int) kitmetrics.Histogram
	GetOrRegisterExplicitHistogram(name string, fn metrics.DistributionFunc) kitmetrics.Histogram
	GetOrRegisterTimer(name string) metrics.Timer
	GetOrRegisterCardinalityCounter(name string) metrics.CardinalityCounter
}

var (
	_ Registry = &basicRegistry{}
	_ Registry = &prefixedRegistry{}
)

type basicRegistry struct {
	sync.Mutex
	p            metrics.Provider
	counters     map[string]kitmetrics.Counter
	gauges       map[string]kitmetrics.Gauge
	histograms   map[string]kitmetrics.Histogram
	timers       map[string]metrics.Timer
	cardCounters map[string]metrics.CardinalityCounter
}

// New creates a Registry given a metrics.Provider.
func New(p metrics.Provider) Registry {
	return &basicRegistry{
		p:            p,
		counters:     make(map[string]kitmetrics.Counter),
		gauges:       make(map[string]kitmetrics.Gauge),
		histograms:   make(map[string]kitmetrics.Histogram),
		timers:       make(map[string]metrics.Timer),
		cardCounters: make(map[string]metrics.CardinalityCounter),
	}
}

// GetOrRegisterCounter creates or finds the Counter given a name.
func (r *basicRegistry) GetOrRegisterCounter(name string) kitmetrics.Counter {
	r.Lock()
	defer r.Unlock()

	if r.counters[name] == nil {
		r.counters[name] = r.p.NewCounter(name)
	}
	return r.counters[name]
}

// GetOrRegisterGauge creates or finds the Gauge given a name.
func (r *basicRegistry) GetOrRegisterGauge(name string) kitmetrics.Gauge {
	r.Lock()
	defer r.Unlock()

	if r.gauges[name] == nil {
		r.gauges[name] = r.p.NewGauge(name)
	}
	return r.gauges[name]
}

// GetOrRegisterHistogram creates or finds the Histogram given a name.
func (r *basicRegistry) GetOrRegisterHistogram(name string, buckets int) kitmetrics.Histogram {
	r.Lock()
	defer r.Unlock()

	if r.histograms[name] == nil {
		r.histograms[name] = r.p.NewHistogram(name, buckets)
	}
	return r.histograms[name]
}

// GetOrRegisterExplicitHistogram creates or finds the Histogram given a name.
// The distribution is only used the first time name is registered.
func (r *basicRegistry) GetOrRegisterExplicitHistogram(name string, fn metrics.DistributionFunc) kitmetrics.Histogram {
	r.Lock()
	defer r.Unlock()

	if r.histograms[name] == nil {
		r.histograms[name] = r.p.NewExplicitHistogram(name, fn)
	}
	return r.histograms[name]
}

// GetOrRegisterTimer creates or finds the Timer given a name. Timers are
// backed by an explicit histogram with metrics.ThirtySecondDistribution
// boundaries and report in metrics.DefaultTimingUnit.
func (r *basicRegistry) GetOrRegisterTimer(name string) metrics.Timer {
	r.Lock()
	defer r.Unlock()

	if r.timers[name] == nil {
		h := r.p.NewExplicitHistogram(name, metrics.ThirtySecondDistribution)
		r.timers[name] = metrics.NewHistogramTimer(h, metrics.DefaultTimingUnit)
	}
	return r.timers[name]
}

// GetOrRegisterCardinalityCounter creates or finds the CardinalityCounter
// given a name.
func (r *basicRegistry) GetOrRegisterCardinalityCounter(name string) metrics.CardinalityCounter {
	r.Lock()
	defer r.Unlock()

	if r.cardCounters[name] == nil {
		r.cardCounters[name] = r.p.NewCardinalityCounter(name)
	}
	return r.cardCounters[name]
}

// prefixedRegistry contains a reference to the original Registry and thus
// shares the same state with the parent registry.
type prefixedRegistry struct {
	r      Registry
	prefix string
}

// NewPrefixed creates a new Registry backed by r with all created metric
// names prefixed with prefix + ".". An empty prefix returns r itself.
func NewPrefixed(r Registry, prefix string) Registry {
	if prefix == "" {
		return r
	}
	return &prefixedRegistry{
		r:      r,
		prefix: prefix,
	}
}

// GetOrRegisterCounter creates or finds the Counter given a name.
func (r *prefixedRegistry) GetOrRegisterCounter(name string) kitmetrics.Counter {
	return r.r.GetOrRegisterCounter(r.prefixedName(name))
}

// GetOrRegisterGauge creates or finds the Gauge given a name.
func (r *prefixedRegistry) GetOrRegisterGauge(name string) kitmetrics.Gauge {
	return r.r.GetOrRegisterGauge(r.prefixedName(name))
}

// GetOrRegisterHistogram creates or finds the Histogram given a name.
func (r *prefixedRegistry) GetOrRegisterHistogram(name string, buckets int) kitmetrics.Histogram {
	return r.r.GetOrRegisterHistogram(r.prefixedName(name), buckets)
}

// GetOrRegisterExplicitHistogram creates or finds the Histogram given a name.
func (r *prefixedRegistry) GetOrRegisterExplicitHistogram(name string, fn metrics.DistributionFunc) kitmetrics.Histogram {
	return r.r.GetOrRegisterExplicitHistogram(r.prefixedName(name), fn)
}

// GetOrRegisterTimer creates or finds the Timer given a name.
func (r *prefixedRegistry) GetOrRegisterTimer(name string) metrics.Timer {
	return r.r.GetOrRegisterTimer(r.prefixedName(name))
}

// GetOrRegisterCardinalityCounter creates or finds the CardinalityCounter
// given a name.
func (r *prefixedRegistry) GetOrRegisterCardinalityCounter(name string) metrics.CardinalityCounter {
	return r.r.GetOrRegisterCardinalityCounter(r.prefixedName(name))
}

func (r *prefixedRegistry) prefixedName(name string) string {
	return r.prefix + "." + name
}
