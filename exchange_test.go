package webmetrics

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/heroku/webmetrics/clock/clocktest"
	"github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
	"github.com/heroku/webmetrics/testing/testlog"
)

var t0 = time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestInstrument(t *testing.T, metric string, c time.Duration, opts ...Option) (*Instrument, *testmetrics.Provider, *testlog.Hook) {
	t.Helper()

	p := testmetrics.NewProvider(t)
	l, hook := testlog.New()
	opts = append([]Option{
		WithClock(clocktest.New(t0, t0.Add(c))),
		WithLogger(l),
	}, opts...)
	return NewInstrument(metricsregistry.New(p), metric, opts...), p, hook
}

func TestServerExchangeRecordsRouteTemplate(t *testing.T) {
	in, p, hook := newTestInstrument(t, ServerRequestsMetric, 37*time.Millisecond)

	ex := in.Start("GET")
	ex.OnResponse(Response{StatusCode: 200}, str("/orders/{id}"), "")

	p.CheckObservations(ServerRequestsMetric, []float64{37},
		"method", "GET", "status", "200", "uri", "/orders/{id}", "exception", "none")
	p.CheckHistogramCount(ServerRequestsMetric, 1)
	hook.CheckLevelCount(t, logrus.WarnLevel, 0)

	if !ex.Completed() {
		t.Fatal("exchange should be completed")
	}
	if got := ex.StartTime(); !got.Equal(t0) {
		t.Fatalf("StartTime() = %v, want %v", got, t0)
	}
}

func TestClientExchangeFailure(t *testing.T) {
	in, p, _ := newTestInstrument(t, ClientRequestsMetric, 5*time.Millisecond)

	ex := in.Start("POST")
	ex.OnFailure(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, str("/pay"), "billing")

	p.CheckObservations(ClientRequestsMetric, []float64{5},
		"method", "POST", "status", "500", "uri", "/pay", "exception", "OpError", "serviceId", "billing")
}

func TestExchangeFailureWithEmbeddedResponse(t *testing.T) {
	in, p, _ := newTestInstrument(t, ClientRequestsMetric, time.Millisecond, WithReportClientErrorURIs(false))

	in.Start("GET").OnFailure(&ResponseError{Response: Response{StatusCode: 404}}, str("/users/{id}"), "users")

	p.CheckObservations(ClientRequestsMetric, []float64{1},
		"method", "GET", "status", "404", "uri", "BAD_REQUEST", "exception", "ResponseError", "serviceId", "users")
}

func TestExchangeFailureWithStatus(t *testing.T) {
	in, p, _ := newTestInstrument(t, ServerRequestsMetric, time.Millisecond)

	in.Start("GET").OnFailure(NewStatusError(503, nil), str("/x"), "")

	p.CheckObservations(ServerRequestsMetric, []float64{1},
		"method", "GET", "status", "503", "uri", "/x", "exception", "StatusError")
}

func TestExchangeAttachedFailure(t *testing.T) {
	in, p, _ := newTestInstrument(t, ServerRequestsMetric, 2*time.Millisecond)

	in.Start("GET").OnResponse(Response{StatusCode: 200, Err: errors.New("late")}, str("/x"), "")

	p.CheckObservations(ServerRequestsMetric, []float64{2},
		"method", "GET", "status", "500", "uri", "/x", "exception", "errorString")
}

func TestExchangeErrorRouteCountsAsSuccess(t *testing.T) {
	in, p, _ := newTestInstrument(t, ServerRequestsMetric, 3*time.Millisecond)

	in.Start("GET").OnResponse(Response{StatusCode: 200, Err: errors.New("handled"), ErrorRoute: true}, str("/x"), "")

	p.CheckObservations(ServerRequestsMetric, []float64{3},
		"method", "GET", "status", "200", "uri", "/x", "exception", "none")
}

func TestExchangeDoubleCompletion(t *testing.T) {
	in, p, hook := newTestInstrument(t, ServerRequestsMetric, time.Millisecond)

	ex := in.Start("GET")
	ex.OnResponse(Response{StatusCode: 200}, str("/x"), "")
	ex.OnFailure(errors.New("again"), str("/x"), "")
	ex.OnResponse(Response{StatusCode: 500}, str("/x"), "")

	p.CheckObservationCount(ServerRequestsMetric, 1,
		"method", "GET", "status", "200", "uri", "/x", "exception", "none")
	p.CheckHistogramCount(ServerRequestsMetric, 1)
	hook.CheckLevelCount(t, logrus.WarnLevel, 2)
	hook.CheckAllContained(t, "exchange already completed", "instrument=http.server.requests")
}

func TestExchangeNeverCompletedRecordsNothing(t *testing.T) {
	in, p, _ := newTestInstrument(t, ServerRequestsMetric, time.Millisecond)

	ex := in.Start("GET")
	if ex.Completed() {
		t.Fatal("new exchange should not be completed")
	}
	p.CheckHistogramCount(ServerRequestsMetric, 0)
}

func TestExchangeNegativeDurationDropped(t *testing.T) {
	p := testmetrics.NewProvider(t)
	l, hook := testlog.New()
	in := NewInstrument(metricsregistry.New(p), ServerRequestsMetric,
		WithClock(clocktest.New(t0, t0.Add(-time.Second))),
		WithLogger(l),
	)

	in.Start("GET").OnResponse(Response{StatusCode: 200}, str("/x"), "")

	p.CheckHistogramCount(ServerRequestsMetric, 0)
	hook.CheckContained(t, "negative exchange duration")
}

func TestExchangesAreIndependent(t *testing.T) {
	p := testmetrics.NewProvider(t)
	in := NewInstrument(metricsregistry.New(p), ServerRequestsMetric,
		WithClock(clocktest.New(t0, t0.Add(10*time.Millisecond), t0.Add(30*time.Millisecond))),
	)

	a := in.Start("GET")
	b := in.Start("GET")
	b.OnResponse(Response{StatusCode: 200}, str("/b"), "")
	a.OnResponse(Response{StatusCode: 200}, str("/a"), "")

	p.CheckObservations(ServerRequestsMetric, []float64{30},
		"method", "GET", "status", "200", "uri", "/a", "exception", "none")
	p.CheckObservations(ServerRequestsMetric, []float64{20},
		"method", "GET", "status", "200", "uri", "/b", "exception", "none")
}

func TestExchangeConcurrentCompletion(t *testing.T) {
	in, p, _ := newTestInstrument(t, ServerRequestsMetric, time.Millisecond)
	ex := in.Start("GET")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex.OnResponse(Response{StatusCode: 200}, str("/x"), "")
		}()
	}
	wg.Wait()

	p.CheckObservationCount(ServerRequestsMetric, 1,
		"method", "GET", "status", "200", "uri", "/x", "exception", "none")
}

func TestInstrumentURICardinality(t *testing.T) {
	p := testmetrics.NewProvider(t)
	in := NewInstrument(metricsregistry.New(p), ServerRequestsMetric)

	for _, path := range []string{"/a", "/b", "/a", "/c/", "/c"} {
		in.Start("GET").OnResponse(Response{StatusCode: 200}, str(path), "")
	}
	in.Start("GET").OnResponse(Response{StatusCode: 302}, str("/d"), "")

	p.CheckCardinalityCounter(ServerRequestsMetric+".uri-cardinality", 4)
}

func TestInstrumentWithoutURICardinality(t *testing.T) {
	p := testmetrics.NewProvider(t)
	in := NewInstrument(metricsregistry.New(p), ClientRequestsMetric, WithoutURICardinality())

	in.Start("GET").OnResponse(Response{StatusCode: 200}, str("/a"), "")

	p.CheckObservationCount(ClientRequestsMetric, 1,
		"method", "GET", "status", "200", "uri", "/a", "exception", "none")
	p.CheckNoCardinalityCounter(ClientRequestsMetric + ".uri-cardinality")
}

type brokenRegistry struct {
	metricsregistry.Registry
}

func (brokenRegistry) GetOrRegisterTimer(string) metrics.Timer {
	panic("backend down")
}

func TestExchangeSurvivesRecordingFailure(t *testing.T) {
	l, hook := testlog.New()
	reg := brokenRegistry{metricsregistry.New(testmetrics.NewProvider(t))}
	in := NewInstrument(reg, ServerRequestsMetric, WithClock(clocktest.New(t0, t0.Add(time.Millisecond))), WithLogger(l))

	ex := in.Start("GET")
	ex.OnResponse(Response{StatusCode: 200}, str("/orders/{id}"), "")

	if !ex.Completed() {
		t.Fatal("exchange should be completed")
	}
	hook.CheckLevelCount(t, logrus.WarnLevel, 1)
	hook.CheckAllContained(t, "recording exchange measurement failed", "backend down")
}
