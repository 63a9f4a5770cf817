package otel

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"
	sdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
)

var _ xmetrics.Provider = (*Provider)(nil)

const (
	// DefaultCollectPeriod is how often metrics are pushed to the collector.
	DefaultCollectPeriod = 20 * time.Second

	meterName = "github.com/heroku/webmetrics"
)

type config struct {
	ctx                 context.Context
	prefix              string
	collectPeriod       time.Duration
	serviceResource     *resource.Resource
	aggregationSelector sdk.AggregationSelector
	exporterFactory     exporterFactory
	reader              sdk.Reader
}

type exporterFactory func(*config) (sdk.Exporter, error)

// Provider hands out go-kit instruments backed by an OpenTelemetry
// MeterProvider.
type Provider struct {
	cfg           config
	meterProvider *sdk.MeterProvider
	meter         metric.Meter

	// streams holds the aggregation of every histogram by instrument name.
	// It is consulted by the view installed on the MeterProvider when an
	// instrument is first created.
	streams sync.Map

	mu           sync.Mutex
	counters     map[string]*Counter
	gauges       map[string]*Gauge
	histograms   map[string]*Histogram
	cardCounters map[string]*CardinalityCounter
}

// New returns a Provider pushing to the collector configured by opts. By
// default metrics are exported over OTLP/HTTP to DefaultAgentEndpoint.
func New(ctx context.Context, serviceName string, opts ...Option) (*Provider, error) {
	cfg := config{
		ctx:                 ctx,
		collectPeriod:       DefaultCollectPeriod,
		serviceResource:     resource.NewSchemaless(ServiceSemConv(serviceName)...),
		aggregationSelector: sdk.DefaultAggregationSelector,
	}

	defaults := []Option{
		DefaultEndpointExporter(),
	}
	for _, opt := range append(defaults, opts...) {
		if err := opt(&cfg); err != nil {
			return nil, errors.Wrap(err, "failed to apply options")
		}
	}

	p := &Provider{
		cfg:          cfg,
		counters:     make(map[string]*Counter),
		gauges:       make(map[string]*Gauge),
		histograms:   make(map[string]*Histogram),
		cardCounters: make(map[string]*CardinalityCounter),
	}

	reader := cfg.reader
	if reader == nil {
		if cfg.exporterFactory == nil {
			return nil, ErrExporterNil
		}
		exp, err := cfg.exporterFactory(&cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create exporter")
		}
		reader = sdk.NewPeriodicReader(exp, sdk.WithInterval(cfg.collectPeriod))
	}

	p.meterProvider = sdk.NewMeterProvider(
		sdk.WithResource(cfg.serviceResource),
		sdk.WithReader(reader),
		sdk.WithView(p.view),
	)
	p.meter = p.meterProvider.Meter(meterName)

	return p, nil
}

// view applies the aggregation stored for a histogram, if any.
func (p *Provider) view(inst sdk.Instrument) (sdk.Stream, bool) {
	if inst.Kind != sdk.InstrumentKindHistogram {
		return sdk.Stream{}, false
	}
	v, ok := p.streams.Load(inst.Name)
	if !ok {
		return sdk.Stream{}, false
	}
	return v.(sdk.Stream), true
}

// MeterProvider returns the underlying SDK MeterProvider.
func (p *Provider) MeterProvider() *sdk.MeterProvider {
	return p.meterProvider
}

// Flush pushes all pending metrics to the exporter.
func (p *Provider) Flush(ctx context.Context) error {
	return p.meterProvider.ForceFlush(ctx)
}

// Stop flushes pending metrics and shuts the exporter down.
func (p *Provider) Stop() {
	_ = p.meterProvider.Shutdown(p.cfg.ctx)
}

func prefixName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
