package lowcard

import (
	"testing"
	"time"

	xmetrics "github.com/heroku/webmetrics/go-kit/metrics"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

func TestNewWithoutKeys(t *testing.T) {
	p := testmetrics.NewProvider(t)
	if got := New(p, nil); got != xmetrics.Provider(p) {
		t.Fatalf("New(p, nil) = %T, want the provider itself", got)
	}
}

func TestProviderFiltersLabels(t *testing.T) {
	t.Run("counter", func(t *testing.T) {
		tp := testmetrics.NewProvider(t)
		p := New(tp, []string{"status"})

		p.NewCounter("requests").With("method", "GET", "status", "200").Add(1)
		p.NewCounter("requests").With("method", "POST", "status", "200").Add(1)

		tp.CheckCounter("requests", 2, "status", "200")
	})

	t.Run("gauge", func(t *testing.T) {
		tp := testmetrics.NewProvider(t)
		p := New(tp, []string{"status"})

		p.NewGauge("inflight").With("uri", "/a", "status", "200").Set(3)

		tp.CheckGauge("inflight", 3, "status", "200")
	})

	t.Run("histogram", func(t *testing.T) {
		tp := testmetrics.NewProvider(t)
		p := New(tp, []string{"method", "status"})

		p.NewHistogram("latency", 50).With("method", "GET", "uri", "/a", "status", "200").Observe(1)
		p.NewExplicitHistogram("latency", xmetrics.FiveSecondDistribution).With("method", "GET", "uri", "/b", "status", "200").Observe(2)

		tp.CheckObservations("latency", []float64{1, 2}, "method", "GET", "status", "200")
	})

	t.Run("malformed", func(t *testing.T) {
		tp := testmetrics.NewProvider(t)
		p := New(tp, []string{"status"})

		p.NewCounter("requests").With("status").Add(1)

		tp.CheckCounter("requests", 1)
	})
}

func TestProviderWithTimers(t *testing.T) {
	tp := testmetrics.NewProvider(t)
	reg := metricsregistry.New(New(tp, []string{"method", "status"}))

	reg.GetOrRegisterTimer("http.server.requests").
		With("method", "GET", "status", "200", "uri", "/orders/{id}", "exception", "none").
		Record(12 * time.Millisecond)
	reg.GetOrRegisterTimer("http.server.requests").
		With("method", "GET", "status", "200", "uri", "/users/{id}", "exception", "none").
		Record(8 * time.Millisecond)

	tp.CheckObservations("http.server.requests", []float64{12, 8}, "method", "GET", "status", "200")
	tp.CheckHistogramCount("http.server.requests", 1)
}
