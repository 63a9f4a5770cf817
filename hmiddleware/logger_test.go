package hmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/clock/clocktest"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
	"github.com/heroku/webmetrics/hmiddleware/httpmetrics"
	"github.com/heroku/webmetrics/testing/testlog"
)

func okHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	logger, hook := testlog.New()

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Get("/apps/{id}", okHandler(t))

	req := httptest.NewRequest("GET", "/apps/123?verbose=1", nil)
	req.Header.Set("User-Agent", "test")
	req.Header.Set("X-Heroku-Robot", "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	hook.CheckAllContained(t,
		"at=finish",
		"method=GET",
		"path=\"/apps/123?verbose=1\"",
		"route=\"/apps/{id}\"",
		"status=200",
		"bytes=2",
		"user_agent=test",
		"robot=true",
	)
}

func TestRequestLoggerWithStdlib(t *testing.T) {
	logger, hook := testlog.New()

	RequestLogger(logger)(okHandler(t)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	hook.CheckAllContained(t, "at=finish", "status=200")
	hook.CheckNotContained(t, "route=")
}

func TestRequestLoggerDoesNotDoubleWrapTheResponseWriter(t *testing.T) {
	logger, _ := testlog.New()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww, ok := w.(middleware.WrapResponseWriter)
		if !ok {
			t.Error("wanted the responseWriter to be a WrapResponseWriter")
			return
		}
		if _, ok := ww.Unwrap().(middleware.WrapResponseWriter); ok {
			t.Error("the inner response writer should just be the vanilla response writer")
		}
		w.WriteHeader(http.StatusOK)
	})

	RequestLogger(logger)(RequestLogger(logger)(handler)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestRequestLoggerUsesExchangeStart(t *testing.T) {
	logger, hook := testlog.New()
	p := testmetrics.NewProvider(t)

	// The exchange starts an hour ago, so the logged service time is at
	// least that.
	start := time.Now().Add(-time.Hour)
	mw := httpmetrics.NewServer(metricsregistry.New(p), webmetrics.DefaultConfig(),
		webmetrics.WithClock(clocktest.New(start, start.Add(time.Millisecond))))

	r := chi.NewRouter()
	r.Use(mw, RequestLogger(logger))
	r.Get("/", okHandler(t))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	entries := hook.Entries()
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	service, _ := entries[0].Data["service"].(string)
	if len(service) < len("3600000ms") {
		t.Fatalf("want service of at least an hour, got %q", service)
	}
	if got := entries[0].Data["method"]; got != "GET" {
		t.Fatalf("want method GET, got %v", got)
	}
	p.CheckObservations(webmetrics.ServerRequestsMetric, []float64{1},
		"method", "GET", "status", "200", "uri", "root", "exception", "none")
}
