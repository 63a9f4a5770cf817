// Package l2met provides a log-based metrics provider for services that run
// without a metrics backend. Series are written as l2met count#, measure#
// and unique# fields of one log line per interval.
package l2met

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/generic"
	"github.com/sirupsen/logrus"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

// DefaultInterval is how often Run logs when no interval is given.
const DefaultInterval = time.Minute

// histogramBuckets is the resolution of the streaming histograms quantiles
// are read from.
const histogramBuckets = 50

var _ xmetrics.Provider = (*Provider)(nil)

// Provider provides constructors for creating, tracking, and logging metrics.
type Provider struct {
	logger   logrus.FieldLogger
	interval time.Duration

	mu         sync.Mutex
	counters   map[string]*counter
	gauges     map[string]*gauge
	histograms map[string]*histogram
	cards      map[string]*cardinalityCounter
}

// New returns a provider logging to l once per interval. A non-positive
// interval selects DefaultInterval.
func New(l logrus.FieldLogger, interval time.Duration) *Provider {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Provider{
		logger:     l,
		interval:   interval,
		counters:   map[string]*counter{},
		gauges:     map[string]*gauge{},
		histograms: map[string]*histogram{},
		cards:      map[string]*cardinalityCounter{},
	}
}

// NewCounter implements Provider.
func (p *Provider) NewCounter(name string) metrics.Counter {
	return p.newCounter(name)
}

func (p *Provider) newCounter(name string, lvs ...string) *counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := seriesName(name, lvs)
	if c, ok := p.counters[k]; ok {
		return c
	}
	c := &counter{Counter: generic.NewCounter(k), p: p, name: name, lvs: lvs}
	p.counters[k] = c
	return c
}

// NewGauge implements Provider.
func (p *Provider) NewGauge(name string) metrics.Gauge {
	return p.newGauge(name)
}

func (p *Provider) newGauge(name string, lvs ...string) *gauge {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := seriesName(name, lvs)
	if g, ok := p.gauges[k]; ok {
		return g
	}
	g := &gauge{Gauge: generic.NewGauge(k), p: p, name: name, lvs: lvs}
	p.gauges[k] = g
	return g
}

// NewHistogram implements Provider.
func (p *Provider) NewHistogram(name string, _ int) metrics.Histogram {
	return p.newHistogram(name)
}

// NewExplicitHistogram implements Provider. Log lines carry quantiles only,
// so the boundaries are ignored.
func (p *Provider) NewExplicitHistogram(name string, _ xmetrics.DistributionFunc) metrics.Histogram {
	return p.newHistogram(name)
}

func (p *Provider) newHistogram(name string, lvs ...string) *histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := seriesName(name, lvs)
	if h, ok := p.histograms[k]; ok {
		return h
	}
	h := &histogram{Histogram: generic.NewHistogram(k, histogramBuckets), p: p, name: name, lvs: lvs}
	p.histograms[k] = h
	return h
}

// NewCardinalityCounter implements Provider.
func (p *Provider) NewCardinalityCounter(name string) xmetrics.CardinalityCounter {
	return p.newCardinalityCounter(name)
}

func (p *Provider) newCardinalityCounter(name string, lvs ...string) *cardinalityCounter {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := seriesName(name, lvs)
	if c, ok := p.cards[k]; ok {
		return c
	}
	c := &cardinalityCounter{HLLCounter: xmetrics.NewHLLCounter(k), p: p, name: name, lvs: lvs}
	p.cards[k] = c
	return c
}

// Run logs the registered series once per interval until ctx is done.
func (p *Provider) Run(ctx context.Context) error {
	tick := time.NewTicker(p.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			p.log()
		}
	}
}

// Stop logs the series one last time.
func (p *Provider) Stop() {
	p.log()
}

func (p *Provider) log() {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := logrus.Fields{}

	for k, c := range p.counters {
		data["count#"+k] = c.ValueReset()
	}
	for k, g := range p.gauges {
		data["measure#"+k] = g.Value()
	}
	for k, h := range p.histograms {
		// negative quantiles mean no observation yet
		if v := h.Quantile(0.50); v >= 0 {
			data["measure#"+k+".p50"] = v
		}
		if v := h.Quantile(0.99); v >= 0 {
			data["measure#"+k+".p99"] = v
		}
	}
	for k, c := range p.cards {
		data["unique#"+k] = c.Estimate()
	}

	if len(data) == 0 {
		return
	}
	p.logger.WithFields(data).WithField("at", "metrics").Info()
}

// seriesName appends the label pairs to name as ,key=value fields.
func seriesName(name string, lvs []string) string {
	if len(lvs) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for i := 0; i < len(lvs); i += 2 {
		v := "unknown"
		if i+1 < len(lvs) {
			v = lvs[i+1]
		}
		b.WriteString(",")
		b.WriteString(lvs[i])
		b.WriteString("=")
		b.WriteString(v)
	}
	return b.String()
}

func merge(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

type counter struct {
	*generic.Counter
	p    *Provider
	name string
	lvs  []string
}

func (c *counter) With(labelValues ...string) metrics.Counter {
	return c.p.newCounter(c.name, merge(c.lvs, labelValues)...)
}

type gauge struct {
	*generic.Gauge
	p    *Provider
	name string
	lvs  []string
}

func (g *gauge) With(labelValues ...string) metrics.Gauge {
	return g.p.newGauge(g.name, merge(g.lvs, labelValues)...)
}

type histogram struct {
	*generic.Histogram
	p    *Provider
	name string
	lvs  []string
}

func (h *histogram) With(labelValues ...string) metrics.Histogram {
	return h.p.newHistogram(h.name, merge(h.lvs, labelValues)...)
}

type cardinalityCounter struct {
	*xmetrics.HLLCounter
	p    *Provider
	name string
	lvs  []string
}

func (c *cardinalityCounter) With(labelValues ...string) xmetrics.CardinalityCounter {
	return c.p.newCardinalityCounter(c.name, merge(c.lvs, labelValues)...)
}
