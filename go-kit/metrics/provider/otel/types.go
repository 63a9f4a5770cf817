package otel

import (
	"context"
	"strings"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/generic"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdk "go.opentelemetry.io/otel/sdk/metric"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

var (
	_ metrics.Counter             = (*Counter)(nil)
	_ metrics.Gauge               = (*Gauge)(nil)
	_ metrics.Histogram           = (*Histogram)(nil)
	_ xmetrics.CardinalityCounter = (*CardinalityCounter)(nil)
)

const (
	defaultExponentialHistogramMaxSize  = 160
	defaultExponentialHistogramMaxScale = 20
)

// Counter is a counter.
type Counter struct {
	metric.Float64Counter
	name       string
	labels     []string
	attributes attribute.Set
	p          *Provider
}

// Add implements metrics.Counter.
func (c *Counter) Add(delta float64) {
	c.Float64Counter.Add(c.p.cfg.ctx, delta, metric.WithAttributeSet(c.attributes))
}

// With implements metrics.Counter.
func (c *Counter) With(labelValues ...string) metrics.Counter {
	lvs := append(append([]string(nil), c.labels...), labelValues...)
	return c.p.newCounter(c.name, lvs...)
}

// NewCounter implements metrics.Provider.
func (p *Provider) NewCounter(name string) metrics.Counter {
	return p.newCounter(prefixName(p.cfg.prefix, name))
}

func (p *Provider) newCounter(name string, labelValues ...string) metrics.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := keyName(name, labelValues...)
	if _, ok := p.counters[k]; !ok {
		c, _ := p.meter.Float64Counter(name)
		p.counters[k] = &Counter{
			Float64Counter: c,
			name:           name,
			labels:         labelValues,
			attributes:     makeAttributes(labelValues),
			p:              p,
		}
	}
	return p.counters[k]
}

// Gauge is a gauge whose last value is reported at every collection.
type Gauge struct {
	*generic.Gauge
	name   string
	labels []string
	p      *Provider
}

// NewGauge implements metrics.Provider.
func (p *Provider) NewGauge(name string) metrics.Gauge {
	return p.newGauge(prefixName(p.cfg.prefix, name))
}

func (p *Provider) newGauge(name string, labelValues ...string) metrics.Gauge {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := keyName(name, labelValues...)
	if _, ok := p.gauges[k]; !ok {
		gg := generic.NewGauge(name)
		attributes := makeAttributes(labelValues)

		_, _ = p.meter.Float64ObservableGauge(name, metric.WithFloat64Callback(
			func(_ context.Context, o metric.Float64Observer) error {
				o.Observe(gg.Value(), metric.WithAttributeSet(attributes))
				return nil
			},
		))

		p.gauges[k] = &Gauge{
			Gauge:  gg,
			name:   name,
			labels: labelValues,
			p:      p,
		}
	}
	return p.gauges[k]
}

// With implements metrics.Gauge.
func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	lvs := append(append([]string(nil), g.labels...), labelValues...)
	return g.p.newGauge(g.name, lvs...)
}

// Histogram is a histogram.
type Histogram struct {
	metric.Float64Histogram
	stream     sdk.Stream
	labels     []string
	attributes attribute.Set
	p          *Provider
}

// NewExplicitHistogram implements metrics.Provider. The boundaries returned
// by fn are used for the lifetime of the provider.
func (p *Provider) NewExplicitHistogram(name string, fn xmetrics.DistributionFunc) metrics.Histogram {
	stream := sdk.Stream{
		Name: prefixName(p.cfg.prefix, name),
		Aggregation: sdk.AggregationExplicitBucketHistogram{
			Boundaries: fn(),
		},
	}
	return p.newHistogram(stream)
}

// NewHistogram implements metrics.Provider. buckets bounds the size of the
// exponential histogram.
func (p *Provider) NewHistogram(name string, buckets int) metrics.Histogram {
	if buckets <= 0 {
		buckets = defaultExponentialHistogramMaxSize
	}
	stream := sdk.Stream{
		Name: prefixName(p.cfg.prefix, name),
		Aggregation: sdk.AggregationBase2ExponentialHistogram{
			MaxSize:  int32(buckets),
			MaxScale: defaultExponentialHistogramMaxScale,
		},
	}
	return p.newHistogram(stream)
}

func (p *Provider) newHistogram(stream sdk.Stream, labelValues ...string) metrics.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := keyName(stream.Name, labelValues...)
	if _, ok := p.histograms[k]; !ok {
		p.streams.LoadOrStore(stream.Name, stream)
		h, _ := p.meter.Float64Histogram(stream.Name)

		p.histograms[k] = &Histogram{
			Float64Histogram: h,
			stream:           stream,
			labels:           labelValues,
			attributes:       makeAttributes(labelValues),
			p:                p,
		}
	}
	return p.histograms[k]
}

// With implements metrics.Histogram.
func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	lvs := append(append([]string(nil), h.labels...), labelValues...)
	return h.p.newHistogram(h.stream, lvs...)
}

// Observe implements metrics.Histogram.
func (h *Histogram) Observe(value float64) {
	h.Record(h.p.cfg.ctx, value, metric.WithAttributeSet(h.attributes))
}

// CardinalityCounter estimates the number of unique values inserted into it
// and reports the estimate as a gauge at every collection.
type CardinalityCounter struct {
	*xmetrics.HLLCounter
	name   string
	labels []string
	p      *Provider
}

// NewCardinalityCounter implements metrics.Provider.
func (p *Provider) NewCardinalityCounter(name string) xmetrics.CardinalityCounter {
	return p.newCardinalityCounter(prefixName(p.cfg.prefix, name))
}

func (p *Provider) newCardinalityCounter(name string, labelValues ...string) xmetrics.CardinalityCounter {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := keyName(name, labelValues...)
	if _, ok := p.cardCounters[k]; !ok {
		hll := xmetrics.NewHLLCounter(name)
		attributes := makeAttributes(labelValues)

		_, _ = p.meter.Int64ObservableGauge(name, metric.WithInt64Callback(
			func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(hll.Estimate()), metric.WithAttributeSet(attributes))
				return nil
			},
		))

		p.cardCounters[k] = &CardinalityCounter{HLLCounter: hll, name: name, labels: labelValues, p: p}
	}
	return p.cardCounters[k]
}

// With implements metrics.CardinalityCounter.
func (c *CardinalityCounter) With(labelValues ...string) xmetrics.CardinalityCounter {
	lvs := append(append([]string(nil), c.labels...), labelValues...)
	return c.p.newCardinalityCounter(c.name, lvs...)
}

// keyName is used as the map key for instruments and incorporates the name
// and the labelValues.
func keyName(name string, labelValues ...string) string {
	if len(labelValues) == 0 {
		return name
	}

	parts := make([]string, 0, len(labelValues)/2)
	for i := 0; i+1 < len(labelValues); i += 2 {
		parts = append(parts, labelValues[i]+":"+labelValues[i+1])
	}
	return name + "." + strings.Join(parts, ".")
}

// makeAttributes converts label values into an attribute set. A trailing
// key without value gets the value "unknown".
func makeAttributes(labels []string) attribute.Set {
	if len(labels)%2 != 0 {
		labels = append(labels, "unknown")
	}

	attributes := make([]attribute.KeyValue, 0, len(labels)/2)
	for i := 0; i < len(labels); i += 2 {
		attributes = append(attributes, attribute.String(labels[i], labels[i+1]))
	}
	return attribute.NewSet(attributes...)
}
