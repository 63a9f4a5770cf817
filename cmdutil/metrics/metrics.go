// Package metrics sets up the metrics backends of a service from the
// environment.
package metrics

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/heroku/webmetrics/cmdutil"
	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metrics/l2met"
	"github.com/heroku/webmetrics/go-kit/metrics/lowcard"
	"github.com/heroku/webmetrics/go-kit/metrics/multiprovider"
	"github.com/heroku/webmetrics/go-kit/metrics/provider/discard"
	"github.com/heroku/webmetrics/go-kit/metrics/provider/otel"
	"github.com/heroku/webmetrics/go-kit/metrics/provider/prometheus"
)

// Backend names accepted in Config.Backends.
const (
	BackendPrometheus = "prometheus"
	BackendOTel       = "otel"
	BackendLog        = "log"
	BackendDiscard    = "discard"
)

// Config stores all the env related config to bootstrap metrics.
type Config struct {
	Backends       []string      `env:"METRICS_BACKENDS,default=prometheus"`
	Prefix         string        `env:"METRICS_PREFIX"`
	ReportInterval time.Duration `env:"METRICS_REPORT_INTERVAL,default=60s"`
	Stage          string        `env:"STAGE"`
	OTel           OTelConfig
}

// OTelConfig configures the OTLP exporter of the otel backend.
type OTelConfig struct {
	CollectorURL          *url.URL      `env:"OTEL_COLLECTOR_URL"`
	Protocol              string        `env:"OTEL_EXPORTER_PROTOCOL,default=http"`
	CollectPeriod         time.Duration `env:"OTEL_COLLECT_PERIOD,default=20s"`
	ExponentialHistograms bool          `env:"OTEL_EXPONENTIAL_HISTOGRAMS"`
}

// ErrUnknownBackend is returned for backend names New does not know.
var ErrUnknownBackend = errors.New("unknown metrics backend")

// Backend is the provider a service records into, together with what the
// service has to run or serve for it.
type Backend struct {
	Provider xmetrics.Provider

	// Handler serves the scrape endpoint. It is nil unless the prometheus
	// backend is selected.
	Handler http.Handler

	// Servers must be run for the lifetime of the service.
	Servers []cmdutil.Server
}

// New builds the backends named by cfg for service. labels is the label
// vocabulary of the metrics the service records; tagKeys, when set,
// restricts it further.
func New(ctx context.Context, logger logrus.FieldLogger, cfg Config, service string, labels, tagKeys []string) (*Backend, error) {
	if len(tagKeys) > 0 {
		labels = intersect(labels, tagKeys)
	}

	b := &Backend{}
	var providers []xmetrics.Provider

	for _, name := range cfg.Backends {
		name = strings.ToLower(strings.TrimSpace(name))
		logger.WithField("backend", name).Info("setting up metrics backend")

		switch name {
		case BackendPrometheus:
			p := prometheus.New(prom.NewRegistry(), cfg.Prefix, labels)
			b.Handler = p.Handler()
			providers = append(providers, p)

		case BackendOTel:
			p, err := newOTel(ctx, cfg, service)
			if err != nil {
				return nil, errors.Wrap(err, "setting up otel metrics")
			}
			providers = append(providers, p)

		case BackendLog:
			p := l2met.New(logger.WithField("backend", BackendLog), cfg.ReportInterval)
			b.Servers = append(b.Servers, cmdutil.NewContextServer(p.Run))
			providers = append(providers, p)

		case BackendDiscard, "":

		default:
			return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
		}
	}

	if len(providers) == 0 {
		b.Provider = discard.New()
		return b, nil
	}

	b.Provider = lowcard.New(multiprovider.New(providers...), tagKeys)
	return b, nil
}

func newOTel(ctx context.Context, cfg Config, service string) (*otel.Provider, error) {
	oc := cfg.OTel
	if oc.CollectorURL == nil {
		return nil, otel.ErrEndpointNil
	}

	opts := []otel.Option{
		otel.WithPrefix(cfg.Prefix),
		otel.WithCollectPeriod(oc.CollectPeriod),
	}
	if cfg.Stage != "" {
		opts = append(opts, otel.WithEnvironmentStandard(cfg.Stage))
	}
	if oc.ExponentialHistograms {
		opts = append(opts, otel.WithExponentialHistograms())
	}

	switch strings.ToLower(oc.Protocol) {
	case "grpc":
		opts = append(opts, otel.WithGRPCExporter(oc.CollectorURL.Host))
	case "http", "":
		opts = append(opts, otel.WithHTTPEndpointExporter(oc.CollectorURL.String()))
	default:
		return nil, errors.Errorf("unknown otel exporter protocol %q", oc.Protocol)
	}

	return otel.New(ctx, service, opts...)
}

func intersect(labels, keys []string) []string {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}

	var out []string
	for _, l := range labels {
		if allowed[l] {
			out = append(out, l)
		}
	}
	return out
}
