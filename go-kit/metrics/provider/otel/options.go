package otel

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdk "go.opentelemetry.io/otel/sdk/metric"
)

var (
	// ErrExporterNil is returned if an exporter is required, but is not passed in.
	ErrExporterNil = errors.New("exporter cannot be nil")
	// ErrEndpointNil is returned if an endpoint is required, but is not passed in.
	ErrEndpointNil = errors.New("endpoint cannot be nil")
	// ErrReaderNil is returned by WithReader when given a nil reader.
	ErrReaderNil = errors.New("reader cannot be nil")
)

// DefaultEndpointExporter is the exporter used when no other is chosen.
var DefaultEndpointExporter = WithHTTPExporter

// DefaultAgentEndpoint points at a collector running next to the process.
const DefaultAgentEndpoint = "http://localhost:4318"

// Option is used for optional arguments when initializing Provider.
type Option func(*config) error

// WithPrefix prefixes every metric name with prefix and a dot.
func WithPrefix(prefix string) Option {
	return func(c *config) error {
		c.prefix = prefix
		return nil
	}
}

// WithCollectPeriod sets how often metrics are exported.
func WithCollectPeriod(d time.Duration) Option {
	return func(c *config) error {
		if d > 0 {
			c.collectPeriod = d
		}
		return nil
	}
}

// WithExponentialHistograms aggregates histograms created with
// NewHistogram into base2 exponential buckets.
func WithExponentialHistograms() Option {
	return WithAggregationSelector(ExponentialAggregationSelector)
}

// WithAggregationSelector sets the default aggregation of instruments.
// Explicit histograms keep their own boundaries.
func WithAggregationSelector(selector sdk.AggregationSelector) Option {
	return func(c *config) error {
		c.aggregationSelector = selector
		return nil
	}
}

// ExponentialAggregationSelector selects base2 exponential aggregation for
// histograms and the SDK default for everything else.
func ExponentialAggregationSelector(kind sdk.InstrumentKind) sdk.Aggregation {
	if kind == sdk.InstrumentKindHistogram {
		return sdk.AggregationBase2ExponentialHistogram{
			MaxSize:  defaultExponentialHistogramMaxSize,
			MaxScale: defaultExponentialHistogramMaxScale,
		}
	}
	return sdk.DefaultAggregationSelector(kind)
}

// WithHTTPExporter exports over OTLP/HTTP to DefaultAgentEndpoint.
func WithHTTPExporter(options ...otlpmetrichttp.Option) Option {
	return WithHTTPEndpointExporter(DefaultAgentEndpoint, options...)
}

// WithHTTPEndpointExporter exports over OTLP/HTTP to endpoint, a URL whose
// scheme selects TLS.
func WithHTTPEndpointExporter(endpoint string, options ...otlpmetrichttp.Option) Option {
	return WithExporterFunc(func(cfg *config) (sdk.Exporter, error) {
		if endpoint == "" {
			return nil, ErrEndpointNil
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "parsing collector endpoint")
		}

		defaults := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(u.Host),
			otlpmetrichttp.WithAggregationSelector(cfg.aggregationSelector),
		}
		if u.Scheme == "http" {
			defaults = append(defaults, otlpmetrichttp.WithInsecure())
		}
		if u.Path != "" && u.Path != "/" {
			defaults = append(defaults, otlpmetrichttp.WithURLPath(u.Path))
		}
		if u.User != nil {
			defaults = append(defaults, otlpmetrichttp.WithHeaders(map[string]string{
				"Authorization": "Basic " + basicAuth(u.User),
			}))
		}
		return otlpmetrichttp.New(cfg.ctx, append(defaults, options...)...)
	})
}

// WithGRPCExporter exports over OTLP/gRPC to endpoint, a host:port.
func WithGRPCExporter(endpoint string, options ...otlpmetricgrpc.Option) Option {
	return WithExporterFunc(func(cfg *config) (sdk.Exporter, error) {
		if endpoint == "" {
			return nil, ErrEndpointNil
		}
		defaults := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithAggregationSelector(cfg.aggregationSelector),
		}
		return otlpmetricgrpc.New(cfg.ctx, append(defaults, options...)...)
	})
}

// WithExporterFunc sets the factory of the exporter. It is called once all
// options are applied.
func WithExporterFunc(fn exporterFactory) Option {
	return func(c *config) error {
		if fn == nil {
			return ErrExporterNil
		}
		c.exporterFactory = fn
		return nil
	}
}

// WithReader collects metrics with r instead of a periodic exporter.
func WithReader(r sdk.Reader) Option {
	return func(c *config) error {
		if r == nil {
			return ErrReaderNil
		}
		c.reader = r
		return nil
	}
}
