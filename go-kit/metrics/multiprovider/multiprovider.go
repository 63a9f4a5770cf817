// Package multiprovider fans metrics out to several providers, e.g. a
// Prometheus scrape endpoint and an OTLP exporter during a migration.
package multiprovider

import (
	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/multi"

	"github.com/heroku/webmetrics/go-kit/metrics"
)

// New returns a metrics.Provider that forwards every constructor call to
// providers. With a single provider, that provider is returned.
func New(providers ...metrics.Provider) metrics.Provider {
	if len(providers) == 1 {
		return providers[0]
	}
	return &multiProvider{providers: providers}
}

var _ metrics.Provider = &multiProvider{}

type multiProvider struct {
	providers []metrics.Provider
}

func (m *multiProvider) NewCounter(name string) kitmetrics.Counter {
	counters := make([]kitmetrics.Counter, 0, len(m.providers))
	for _, p := range m.providers {
		counters = append(counters, p.NewCounter(name))
	}
	return multi.NewCounter(counters...)
}

func (m *multiProvider) NewGauge(name string) kitmetrics.Gauge {
	gauges := make([]kitmetrics.Gauge, 0, len(m.providers))
	for _, p := range m.providers {
		gauges = append(gauges, p.NewGauge(name))
	}
	return multi.NewGauge(gauges...)
}

func (m *multiProvider) NewHistogram(name string, buckets int) kitmetrics.Histogram {
	histograms := make([]kitmetrics.Histogram, 0, len(m.providers))
	for _, p := range m.providers {
		histograms = append(histograms, p.NewHistogram(name, buckets))
	}
	return multi.NewHistogram(histograms...)
}

func (m *multiProvider) NewExplicitHistogram(name string, fn metrics.DistributionFunc) kitmetrics.Histogram {
	histograms := make([]kitmetrics.Histogram, 0, len(m.providers))
	for _, p := range m.providers {
		histograms = append(histograms, p.NewExplicitHistogram(name, fn))
	}
	return multi.NewHistogram(histograms...)
}

func (m *multiProvider) NewCardinalityCounter(name string) metrics.CardinalityCounter {
	cardCounters := make(multiCardinalityCounter, 0, len(m.providers))
	for _, p := range m.providers {
		cardCounters = append(cardCounters, p.NewCardinalityCounter(name))
	}
	return cardCounters
}

// Stop stops all the underlying providers.
func (m *multiProvider) Stop() {
	for _, p := range m.providers {
		p.Stop()
	}
}

type multiCardinalityCounter []metrics.CardinalityCounter

func (cc multiCardinalityCounter) With(labelValues ...string) metrics.CardinalityCounter {
	cardCounters := make(multiCardinalityCounter, 0, len(cc))
	for _, c := range cc {
		cardCounters = append(cardCounters, c.With(labelValues...))
	}
	return cardCounters
}

func (cc multiCardinalityCounter) Insert(b []byte) {
	for _, c := range cc {
		c.Insert(b)
	}
}
