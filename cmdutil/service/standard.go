// Package service bootstraps a standard service: logger, metrics backends,
// HTTP exchange instrumentation and signal handling, decoded from the
// environment and run as one oklog/run group.
package service

import (
	"fmt"
	"net/http"
	"strings"
	"syscall"

	"github.com/joeshaw/envdecode"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/cmdutil"
	"github.com/heroku/webmetrics/cmdutil/metrics"
	"github.com/heroku/webmetrics/cmdutil/svclog"
	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
	"github.com/heroku/webmetrics/go-kit/runtimemetrics"
	"github.com/heroku/webmetrics/hmiddleware/httpmetrics"
)

// Standard is a standard service.
type Standard struct {
	g run.Group

	App             string
	Deploy          string
	Logger          logrus.FieldLogger
	MetricsProvider xmetrics.Provider
	Registry        metricsregistry.Registry

	// MetricsHandler serves the scrape endpoint, when the prometheus
	// backend is enabled.
	MetricsHandler http.Handler

	// HTTPMetrics is the configuration of the HTTP instrumentation points.
	HTTPMetrics webmetrics.Config

	platform platformConfig
	warnings *rate.Limiter
}

// New returns a Standard service with logging, metrics and common signal
// handling.
//
// It calls envdecode.MustStrictDecode on the provided appConfig, if any.
func New(appConfig interface{}, ofs ...OptionFunc) *Standard {
	var sc standardConfig
	envdecode.MustStrictDecode(&sc)
	if appConfig != nil {
		envdecode.MustStrictDecode(appConfig)
	}

	var o options
	for _, of := range ofs {
		of(&o)
	}

	logger := svclog.NewLogger(sc.Logger)

	if !o.skipMetricsSuffix && sc.Metrics.Prefix != "" {
		suf := o.customMetricsSuffix
		if suf == "" {
			suf = metricsSuffixFromDyno(sc.Logger.Dyno)
		}
		if suf != "" {
			sc.Metrics.Prefix += "." + suf
		}
	}

	backend, err := metrics.New(o.ctx(), logger, sc.Metrics, sc.Logger.AppName, webmetrics.TagKeys(), sc.HTTPMetrics.TagKeys)
	if err != nil {
		logger.WithError(err).Fatal("setting up metrics")
	}

	s := &Standard{
		App:             sc.Logger.AppName,
		Deploy:          sc.Logger.Deploy,
		Logger:          logger,
		MetricsProvider: backend.Provider,
		Registry:        metricsregistry.New(backend.Provider),
		MetricsHandler:  backend.Handler,
		HTTPMetrics:     sc.HTTPMetrics,
		platform:        sc.Platform,
		warnings:        svclog.NewWarnLimiter(sc.Logger),
	}

	s.Add(backend.Servers...)
	if sc.Runtime.Enabled {
		c := runtimemetrics.NewCollector(s.Registry, sc.Runtime.Interval)
		s.Add(cmdutil.NewContextServer(c.Run))
	}
	s.Add(cmdutil.NewSignalServer(logger, syscall.SIGINT, syscall.SIGTERM))

	return s
}

// InstrumentOptions returns the options every instrumentation point of the
// service is built with.
func (s *Standard) InstrumentOptions() []webmetrics.Option {
	return []webmetrics.Option{
		webmetrics.WithLogger(s.Logger),
		webmetrics.WithWarnings(s.warnings),
	}
}

// ServerMiddleware returns the middleware timing the server exchanges of
// the service.
func (s *Standard) ServerMiddleware() func(http.Handler) http.Handler {
	return httpmetrics.NewServer(s.Registry, s.HTTPMetrics, s.InstrumentOptions()...)
}

// Client returns a copy of c timing its exchanges. A nil c stands for
// http.DefaultClient.
func (s *Standard) Client(c *http.Client) *http.Client {
	return httpmetrics.NewClient(c, s.Registry, s.HTTPMetrics, s.InstrumentOptions()...)
}

// Add adds cmdutil.Servers to be managed.
func (s *Standard) Add(svs ...cmdutil.Server) {
	for _, sv := range svs {
		s.g.Add(sv.Run, sv.Stop)
	}
}

// Run runs all standard and Added cmdutil.Servers.
//
// If the error returned by oklog/run.Run is non-nil, it is logged
// with s.Logger.Fatal.
func (s *Standard) Run() {
	defer ReportPanic(s.Logger)

	err := s.g.Run()

	// Not deferred: Fatal below exits before deferred calls run.
	s.MetricsProvider.Stop()

	if err != nil {
		s.Logger.WithError(err).Fatal()
	}
}

// ReportPanic logs a panic in progress and re-panics.
func ReportPanic(logger logrus.FieldLogger) {
	if p := recover(); p != nil {
		logger.WithField("at", "panic").Error(fmt.Sprint(p))
		panic(p)
	}
}

// metricsSuffixFromDyno determines a metrics suffix from dyno. It uses the
// process type component from dyno, or "server" if that's "web". If dyno is
// empty, it returns an empty suffix.
func metricsSuffixFromDyno(dyno string) string {
	if dyno == "" {
		return ""
	}
	parts := strings.SplitN(dyno, ".", 2)
	pt := parts[0]
	if pt == "web" {
		pt = "server"
	}
	return pt
}
