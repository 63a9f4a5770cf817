package webmetrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/heroku/webmetrics/clock"
	"github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// Metric names of the HTTP instrumentation points.
const (
	ServerRequestsMetric = "http.server.requests"
	ClientRequestsMetric = "http.client.requests"
)

// uriCardinalitySuffix names the cardinality estimate of the uri tag of a
// metric, e.g. http.server.requests.uri-cardinality.
const uriCardinalitySuffix = "uri-cardinality"

// Instrument completes the exchanges of one instrumentation point and
// records a measurement under its metric name for each of them.
type Instrument struct {
	metric                string
	timer                 *Timer
	clock                 clock.Clock
	reportClientErrorURIs bool
	countURIs             bool
	uriCardinality        metrics.CardinalityCounter
	logger                logrus.FieldLogger
	warnings              *rate.Limiter
}

// An Option configures an Instrument.
type Option func(*Instrument)

// WithClock sets the clock exchanges are timed with.
func WithClock(c clock.Clock) Option {
	return func(in *Instrument) {
		in.clock = c
	}
}

// WithLogger sets the logger misuse is reported to. Warnings are sampled to
// at most one per second with bursts of 10.
func WithLogger(l logrus.FieldLogger) Option {
	return func(in *Instrument) {
		in.logger = l
	}
}

// WithWarnings replaces the limiter misuse warnings are sampled with.
func WithWarnings(l *rate.Limiter) Option {
	return func(in *Instrument) {
		if l != nil {
			in.warnings = l
		}
	}
}

// WithReportClientErrorURIs controls whether 4xx responses keep their path
// as uri tag. It defaults to true.
func WithReportClientErrorURIs(report bool) Option {
	return func(in *Instrument) {
		in.reportClientErrorURIs = report
	}
}

// WithoutURICardinality disables the uri cardinality estimate.
func WithoutURICardinality() Option {
	return func(in *Instrument) {
		in.countURIs = false
	}
}

// NewInstrument returns an Instrument recording into reg under metric.
func NewInstrument(reg metricsregistry.Registry, metric string, opts ...Option) *Instrument {
	in := &Instrument{
		metric:                metric,
		clock:                 clock.Default,
		reportClientErrorURIs: true,
		countURIs:             true,
		warnings:              rate.NewLimiter(rate.Every(time.Second), 10),
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.countURIs {
		in.uriCardinality = reg.GetOrRegisterCardinalityCounter(metric + "." + uriCardinalitySuffix)
	}
	if in.logger != nil {
		in.logger = in.logger.WithField("instrument", metric)
	}
	in.timer = &Timer{
		Registry: reg,
		Clock:    in.clock,
		Logger:   in.logger,
		Warnings: in.warnings,
	}
	return in
}

// Metric returns the metric name measurements are recorded under.
func (in *Instrument) Metric() string { return in.metric }

// Start begins timing an exchange using method, which may be empty when
// unknown.
func (in *Instrument) Start(method string) *Exchange {
	return &Exchange{
		in:     in,
		start:  in.clock.Now(),
		method: method,
	}
}

func (in *Instrument) warn(fields logrus.Fields, msg string) {
	if in.logger == nil || !in.warnings.Allow() {
		return
	}
	in.logger.WithFields(fields).Warn(msg)
}

// An Exchange is one in-flight request. It is owned by the request it was
// started for and must be completed at most once, with either OnResponse
// or OnFailure. An exchange that is never completed records nothing.
type Exchange struct {
	in     *Instrument
	start  time.Time
	method string
	done   int32
}

// StartTime returns when the exchange started.
func (ex *Exchange) StartTime() time.Time { return ex.start }

// Method returns the HTTP method of the exchange.
func (ex *Exchange) Method() string { return ex.method }

// Completed reports whether OnResponse or OnFailure has been called.
func (ex *Exchange) Completed() bool { return atomic.LoadInt32(&ex.done) == 1 }

// OnResponse completes the exchange with resp. path is the route template,
// nil when unknown, and serviceID the called service, empty when not
// applicable.
//
// A failure attached to resp is reported as the exchange's exception unless
// it was rendered by an error route, in which case the exchange counts as a
// success.
func (ex *Exchange) OnResponse(resp Response, path *string, serviceID string) {
	if resp.Err != nil && !resp.ErrorRoute {
		ex.OnFailure(resp.Err, path, serviceID)
		return
	}
	ex.complete(&resp, nil, path, serviceID)
}

// OnFailure completes the exchange with err. The status is taken from a
// response embedded in err, then from an explicit status carried by err,
// and defaults to 500.
func (ex *Exchange) OnFailure(err error, path *string, serviceID string) {
	ex.complete(failureResponse(err), err, path, serviceID)
}

func (ex *Exchange) complete(resp *Response, err error, path *string, serviceID string) {
	in := ex.in
	if !atomic.CompareAndSwapInt32(&ex.done, 0, 1) {
		in.warn(logrus.Fields{"method": ex.method}, "exchange already completed, ignoring")
		return
	}

	defer func() {
		if p := recover(); p != nil {
			in.warn(logrus.Fields{"panic": fmt.Sprint(p)}, "recording exchange measurement failed")
		}
	}()

	tags := BuildTags(Params{
		Response:              resp,
		Method:                ex.method,
		Path:                  path,
		Err:                   err,
		ServiceID:             serviceID,
		ReportClientErrorURIs: in.reportClientErrorURIs,
	})
	in.timer.Record(in.metric, tags, ex.start)

	if in.uriCardinality != nil {
		if v, ok := tags.Value(URITag); ok {
			in.uriCardinality.Insert([]byte(v))
		}
	}
}
