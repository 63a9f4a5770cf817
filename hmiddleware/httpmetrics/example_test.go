package httpmetrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/go-kit/metrics/testmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// This example shows how server exchanges are tagged.
func Example() {
	provider := testmetrics.NewProvider(&testing.T{})
	reg := metricsregistry.New(provider)

	r := chi.NewRouter()
	r.Use(NewServer(reg, webmetrics.DefaultConfig()))

	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	for _, path := range []string{"/orders/1", "/orders/2", "/admin"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	provider.PrintObservationCount("http.server.requests",
		"method", "GET", "status", "200", "uri", "/orders/{id}", "exception", "none")
	provider.PrintObservationCount("http.server.requests",
		"method", "GET", "status", "403", "uri", "/admin", "exception", "none")

	// Output:
	// http.server.requests.method:GET:status:200:uri:/orders/{id}:exception:none: 2
	// http.server.requests.method:GET:status:403:uri:/admin:exception:none: 1
}
