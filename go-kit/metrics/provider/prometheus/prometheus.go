// Package prometheus provides a metrics Provider backed by a Prometheus
// registry, for services that are scraped rather than pushing to a
// collector.
//
// Prometheus requires every series of a metric to carry the same label
// names, so the provider is built with a fixed label vocabulary. Labels
// passed to With outside of it are dropped, and labels of the vocabulary
// that were not passed are reported with an empty value.
package prometheus

import (
	"net/http"
	"strings"
	"sync"

	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

var _ xmetrics.Provider = (*Provider)(nil)

// Provider registers one collector per metric name on a Prometheus
// registry.
type Provider struct {
	namespace string
	labels    []string
	registry  *prometheus.Registry

	mu           sync.Mutex
	collectors   map[string]prometheus.Collector
	cardCounters map[string]*cardinalityCounter
}

// New returns a Provider registering on registry, which may be nil to use
// a fresh one. Metric names are prefixed with namespace and labels is the
// vocabulary accepted by With.
func New(registry *prometheus.Registry, namespace string, labels []string) *Provider {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return &Provider{
		namespace:    sanitize(namespace),
		labels:       append([]string(nil), labels...),
		registry:     registry,
		collectors:   make(map[string]prometheus.Collector),
		cardCounters: make(map[string]*cardinalityCounter),
	}
}

// Registry returns the registry metrics are registered on.
func (p *Provider) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NewCounter implements metrics.Provider.
func (p *Provider) NewCounter(name string) kitmetrics.Counter {
	cv := p.register(name, func(opts prometheus.Opts) prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts(opts), p.labels)
	}).(*prometheus.CounterVec)
	return &counter{cv: cv, lvs: p.newLabelValues()}
}

// NewGauge implements metrics.Provider.
func (p *Provider) NewGauge(name string) kitmetrics.Gauge {
	gv := p.register(name, func(opts prometheus.Opts) prometheus.Collector {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts(opts), p.labels)
	}).(*prometheus.GaugeVec)
	return &gauge{gv: gv, lvs: p.newLabelValues()}
}

// NewHistogram implements metrics.Provider. Histograms get the default
// Prometheus buckets; buckets is ignored.
func (p *Provider) NewHistogram(name string, _ int) kitmetrics.Histogram {
	return p.newHistogram(name, prometheus.DefBuckets)
}

// NewExplicitHistogram implements metrics.Provider.
func (p *Provider) NewExplicitHistogram(name string, fn xmetrics.DistributionFunc) kitmetrics.Histogram {
	return p.newHistogram(name, fn())
}

func (p *Provider) newHistogram(name string, buckets []float64) kitmetrics.Histogram {
	hv := p.register(name, func(opts prometheus.Opts) prometheus.Collector {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      opts.Name,
			Help:      opts.Help,
			Buckets:   buckets,
		}, p.labels)
	}).(*prometheus.HistogramVec)
	return &histogram{hv: hv, lvs: p.newLabelValues()}
}

// NewCardinalityCounter implements metrics.Provider. The estimate is
// exported as a gauge and does not carry labels.
func (p *Provider) NewCardinalityCounter(name string) xmetrics.CardinalityCounter {
	p.mu.Lock()
	if cc, ok := p.cardCounters[name]; ok {
		p.mu.Unlock()
		return cc
	}
	cc := &cardinalityCounter{HLLCounter: xmetrics.NewHLLCounter(name)}
	p.cardCounters[name] = cc
	p.mu.Unlock()

	p.register(name, func(opts prometheus.Opts) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts), func() float64 {
			return float64(cc.Estimate())
		})
	})
	return cc
}

// Stop unregisters every collector of the provider.
func (p *Provider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, c := range p.collectors {
		p.registry.Unregister(c)
		delete(p.collectors, name)
	}
}

// register returns the collector of name, creating and registering it with
// build on first use.
func (p *Provider) register(name string, build func(prometheus.Opts) prometheus.Collector) prometheus.Collector {
	p.mu.Lock()
	defer p.mu.Unlock()

	name = sanitize(name)
	if c, ok := p.collectors[name]; ok {
		return c
	}

	c := build(prometheus.Opts{
		Namespace: p.namespace,
		Name:      name,
		Help:      name,
	})
	if err := p.registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(errors.Wrapf(err, "registering %s", name))
		}
		c = are.ExistingCollector
	}
	p.collectors[name] = c
	return c
}

func (p *Provider) newLabelValues() labelValues {
	return labelValues{keys: p.labels, values: make([]string, len(p.labels))}
}

// labelValues holds one value per label of the vocabulary.
type labelValues struct {
	keys   []string
	values []string
}

// with returns a copy of lv with the key/value pairs of kvs applied. Keys
// outside the vocabulary are ignored. A trailing key without a value gets
// the value "unknown".
func (lv labelValues) with(kvs ...string) labelValues {
	if len(kvs)%2 != 0 {
		kvs = append(kvs, "unknown")
	}
	values := append([]string(nil), lv.values...)
	for i := 0; i < len(kvs); i += 2 {
		for j, k := range lv.keys {
			if k == kvs[i] {
				values[j] = kvs[i+1]
				break
			}
		}
	}
	return labelValues{keys: lv.keys, values: values}
}

type counter struct {
	cv  *prometheus.CounterVec
	lvs labelValues
}

func (c *counter) With(labelValues ...string) kitmetrics.Counter {
	return &counter{cv: c.cv, lvs: c.lvs.with(labelValues...)}
}

func (c *counter) Add(delta float64) {
	c.cv.WithLabelValues(c.lvs.values...).Add(delta)
}

type gauge struct {
	gv  *prometheus.GaugeVec
	lvs labelValues
}

func (g *gauge) With(labelValues ...string) kitmetrics.Gauge {
	return &gauge{gv: g.gv, lvs: g.lvs.with(labelValues...)}
}

func (g *gauge) Set(v float64) {
	g.gv.WithLabelValues(g.lvs.values...).Set(v)
}

func (g *gauge) Add(delta float64) {
	g.gv.WithLabelValues(g.lvs.values...).Add(delta)
}

type histogram struct {
	hv  *prometheus.HistogramVec
	lvs labelValues
}

func (h *histogram) With(labelValues ...string) kitmetrics.Histogram {
	return &histogram{hv: h.hv, lvs: h.lvs.with(labelValues...)}
}

func (h *histogram) Observe(v float64) {
	h.hv.WithLabelValues(h.lvs.values...).Observe(v)
}

// cardinalityCounter ignores labels: all inserts feed the same sketch.
type cardinalityCounter struct {
	*xmetrics.HLLCounter
}

func (c *cardinalityCounter) With(...string) xmetrics.CardinalityCounter { return c }

// sanitize turns a dotted metric name into a valid Prometheus name.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		}
		return '_'
	}, name)
}
