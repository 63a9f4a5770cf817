package httpmetrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/clock/clocktest"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

const clientMetric = webmetrics.ClientRequestsMetric

type stubTransport struct {
	status int
	err    error
	calls  int
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{StatusCode: s.status, Body: http.NoBody, Request: req}, nil
}

func newTransport(t *testing.T, base http.RoundTripper, cfg webmetrics.Config, d time.Duration) (http.RoundTripper, *testmetrics.Provider) {
	t.Helper()

	p := testmetrics.NewProvider(t)
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewTransport(base, metricsregistry.New(p), cfg, webmetrics.WithClock(clocktest.New(t0, t0.Add(d)))), p
}

func newRequest(t *testing.T, ctx context.Context, target string) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := testmetrics.NewProvider(t)
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClient(srv.Client(), metricsregistry.New(p), webmetrics.DefaultConfig(),
		webmetrics.WithClock(clocktest.New(t0, t0.Add(12*time.Millisecond))))

	ctx := WithServiceID(WithURITemplate(context.Background(), "/users/{id}"), "users")
	resp, err := c.Do(newRequest(t, ctx, srv.URL+"/users/42"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	p.CheckObservations(clientMetric, []float64{12},
		"method", "GET", "status", "200", "uri", "/users/{id}", "exception", "none", "serviceId", "users")
	p.CheckCardinalityCounter(clientMetric+".uri-cardinality", 1)
}

func TestTransportUnknownURI(t *testing.T) {
	rt, p := newTransport(t, &stubTransport{status: http.StatusOK}, webmetrics.DefaultConfig(), time.Millisecond)

	if _, err := rt.RoundTrip(newRequest(t, context.Background(), "http://example.org/users/42")); err != nil {
		t.Fatal(err)
	}

	p.CheckObservations(clientMetric, []float64{1},
		"method", "GET", "status", "200", "uri", "UNKNOWN", "exception", "none")
}

func TestTransportEmbeddedServer(t *testing.T) {
	rt, p := newTransport(t, &stubTransport{status: http.StatusOK}, webmetrics.DefaultConfig(), time.Millisecond)

	ctx := WithServiceID(WithURITemplate(context.Background(), "/ping"), "/")
	if _, err := rt.RoundTrip(newRequest(t, ctx, "http://localhost/ping")); err != nil {
		t.Fatal(err)
	}

	p.CheckObservations(clientMetric, []float64{1},
		"method", "GET", "status", "200", "uri", "/ping", "exception", "none", "serviceId", "embedded-server")
}

func TestTransportClientErrors(t *testing.T) {
	for _, c := range []struct {
		status int
		report bool
		uri    string
	}{
		{http.StatusNotFound, true, "NOT_FOUND"},
		{http.StatusForbidden, true, "/users/{id}"},
		{http.StatusForbidden, false, "/users/{id}"},
		{http.StatusUnauthorized, false, "/users/{id}"},
		{http.StatusMovedPermanently, true, "REDIRECTION"},
		{http.StatusServiceUnavailable, false, "/users/{id}"},
	} {
		cfg := webmetrics.DefaultConfig()
		cfg.ReportClientErrorURIs = c.report
		rt, p := newTransport(t, &stubTransport{status: c.status}, cfg, time.Millisecond)

		ctx := WithURITemplate(context.Background(), "/users/{id}")
		if _, err := rt.RoundTrip(newRequest(t, ctx, "http://example.org/users/42")); err != nil {
			t.Fatal(err)
		}

		p.CheckObservations(clientMetric, []float64{1},
			"method", "GET", "status", strconv.Itoa(c.status), "uri", c.uri, "exception", "none")
	}
}

func TestTransportIgnoresClientErrorURIsOption(t *testing.T) {
	p := testmetrics.NewProvider(t)
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rt := NewTransport(&stubTransport{status: http.StatusForbidden}, metricsregistry.New(p), webmetrics.DefaultConfig(),
		webmetrics.WithClock(clocktest.New(t0, t0.Add(time.Millisecond))),
		webmetrics.WithReportClientErrorURIs(false),
	)

	ctx := WithURITemplate(context.Background(), "/users/{id}")
	if _, err := rt.RoundTrip(newRequest(t, ctx, "http://example.org/users/42")); err != nil {
		t.Fatal(err)
	}

	p.CheckObservations(clientMetric, []float64{1},
		"method", "GET", "status", "403", "uri", "/users/{id}", "exception", "none")
}

func TestTransportFailure(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	rt, p := newTransport(t, &stubTransport{err: dialErr}, webmetrics.DefaultConfig(), 8*time.Millisecond)

	ctx := WithServiceID(WithURITemplate(context.Background(), "/pay"), "billing")
	if _, err := rt.RoundTrip(newRequest(t, ctx, "http://billing/pay")); err != dialErr {
		t.Fatalf("RoundTrip() error = %v, want %v", err, dialErr)
	}

	p.CheckObservations(clientMetric, []float64{8},
		"method", "GET", "status", "500", "uri", "/pay", "exception", "OpError", "serviceId", "billing")
}

func TestTransportResponseFailure(t *testing.T) {
	respErr := &webmetrics.ResponseError{Response: webmetrics.Response{StatusCode: http.StatusTooManyRequests}}
	rt, p := newTransport(t, &stubTransport{err: respErr}, webmetrics.DefaultConfig(), time.Millisecond)

	ctx := WithURITemplate(context.Background(), "/search")
	if _, err := rt.RoundTrip(newRequest(t, ctx, "http://example.org/search")); err == nil {
		t.Fatal("expected an error")
	}

	p.CheckObservations(clientMetric, []float64{1},
		"method", "GET", "status", "429", "uri", "/search", "exception", "ResponseError")
}

func TestTransportDisabled(t *testing.T) {
	base := &stubTransport{status: http.StatusOK}
	cfg := webmetrics.DefaultConfig()
	cfg.ClientEnabled = false

	rt, p := newTransport(t, base, cfg, time.Millisecond)
	if rt != http.RoundTripper(base) {
		t.Fatalf("NewTransport() = %T, want the base transport", rt)
	}
	p.CheckNoCardinalityCounter(clientMetric + ".uri-cardinality")
}

func TestTransportPathPatterns(t *testing.T) {
	base := &stubTransport{status: http.StatusOK}
	cfg := webmetrics.DefaultConfig()
	cfg.ClientPaths = []string{"/api/**"}
	rt, p := newTransport(t, base, cfg, time.Millisecond)

	for _, target := range []string{"http://example.org/other", "http://example.org/api/x"} {
		if _, err := rt.RoundTrip(newRequest(t, context.Background(), target)); err != nil {
			t.Fatal(err)
		}
	}

	if base.calls != 2 {
		t.Fatalf("base called %d times, want 2", base.calls)
	}
	p.CheckHistogramCount(clientMetric, 1)
}
