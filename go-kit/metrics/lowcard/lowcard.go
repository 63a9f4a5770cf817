// Package lowcard wraps a metrics.Provider so that only an allow-list of
// label keys reaches the backend. Series whose dropped labels differed are
// merged.
package lowcard

import (
	"github.com/go-kit/kit/metrics"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

// New returns p unchanged when keys is empty, and otherwise a provider
// whose instruments drop every label not named in keys.
func New(p xmetrics.Provider, keys []string) xmetrics.Provider {
	if len(keys) == 0 {
		return p
	}
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return provider{Provider: p, allowed: allowed}
}

type provider struct {
	xmetrics.Provider
	allowed map[string]bool
}

func (p provider) NewCounter(name string) metrics.Counter {
	return counter{Counter: p.Provider.NewCounter(name), allowed: p.allowed}
}

func (p provider) NewGauge(name string) metrics.Gauge {
	return gauge{Gauge: p.Provider.NewGauge(name), allowed: p.allowed}
}

func (p provider) NewHistogram(name string, buckets int) metrics.Histogram {
	return histogram{Histogram: p.Provider.NewHistogram(name, buckets), allowed: p.allowed}
}

func (p provider) NewExplicitHistogram(name string, fn xmetrics.DistributionFunc) metrics.Histogram {
	return histogram{Histogram: p.Provider.NewExplicitHistogram(name, fn), allowed: p.allowed}
}

func (p provider) NewCardinalityCounter(name string) xmetrics.CardinalityCounter {
	return cardinalityCounter{CardinalityCounter: p.Provider.NewCardinalityCounter(name), allowed: p.allowed}
}

type counter struct {
	metrics.Counter
	allowed map[string]bool
}

func (c counter) With(labelValues ...string) metrics.Counter {
	c.Counter = c.Counter.With(filter(c.allowed, labelValues)...)
	return c
}

type gauge struct {
	metrics.Gauge
	allowed map[string]bool
}

func (g gauge) With(labelValues ...string) metrics.Gauge {
	g.Gauge = g.Gauge.With(filter(g.allowed, labelValues)...)
	return g
}

type histogram struct {
	metrics.Histogram
	allowed map[string]bool
}

func (h histogram) With(labelValues ...string) metrics.Histogram {
	h.Histogram = h.Histogram.With(filter(h.allowed, labelValues)...)
	return h
}

type cardinalityCounter struct {
	xmetrics.CardinalityCounter
	allowed map[string]bool
}

func (c cardinalityCounter) With(labelValues ...string) xmetrics.CardinalityCounter {
	c.CardinalityCounter = c.CardinalityCounter.With(filter(c.allowed, labelValues)...)
	return c
}

// filter keeps the key/value pairs whose key is allowed. An odd number of
// label values is malformed and yields no labels.
func filter(allowed map[string]bool, labelValues []string) []string {
	if len(labelValues)%2 != 0 {
		return nil
	}
	out := make([]string, 0, len(labelValues))
	for i := 0; i < len(labelValues); i += 2 {
		if allowed[labelValues[i]] {
			out = append(out, labelValues[i], labelValues[i+1])
		}
	}
	return out
}
