package service

import (
	"fmt"
	"net/http"

	"github.com/heroku/webmetrics/cmdutil"
)

// MetricsPath is where the scrape endpoint is served.
const MetricsPath = "/metrics"

// HTTP returns the HTTP servers of the service: h on PORT and, when the
// prometheus backend is enabled, the scrape endpoint. The scrape endpoint
// gets its own listener when METRICS_PORT is set and is otherwise served at
// MetricsPath in front of h.
//
// Scrapes are not instrumented.
func (s *Standard) HTTP(h http.Handler, hooks ...func(*http.Server)) cmdutil.Server {
	var srvs []cmdutil.Server

	if s.MetricsHandler != nil && s.platform.MetricsPort == 0 {
		h = withMetricsEndpoint(h, s.MetricsHandler)
	}

	srv := &http.Server{
		Handler: h,
		Addr:    fmt.Sprintf(":%d", s.platform.Port),
	}
	for _, hook := range hooks {
		hook(srv)
	}
	srvs = append(srvs, cmdutil.NewHTTPServer(s.Logger, srv))

	if s.MetricsHandler != nil && s.platform.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle(MetricsPath, s.MetricsHandler)
		srvs = append(srvs, cmdutil.NewHTTPServer(s.Logger.WithField("service", "metrics"), &http.Server{
			Handler: mux,
			Addr:    fmt.Sprintf(":%d", s.platform.MetricsPort),
		}))
	}

	return cmdutil.MultiServer(srvs...)
}

func withMetricsEndpoint(h, metrics http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == MetricsPath {
			metrics.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
