package hmiddleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/heroku/webmetrics/hmiddleware/httpmetrics"
)

// RequestLogger is a middleware logging one line per finished request,
// similar to heroku router logs, with remote_addr and user_agent added.
//
// Installed inside httpmetrics.NewServer, the line carries the route
// template, the method tag and the time elapsed since the exchange started,
// so that logs and latency metrics agree.
func RequestLogger(l logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww, ok := w.(middleware.WrapResponseWriter)
			if !ok {
				ww = middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			}

			t0, method := time.Now(), r.Method
			if ex, ok := httpmetrics.ExchangeFrom(r.Context()); ok {
				t0, method = ex.StartTime(), ex.Method()
			}
			defer func() {
				logRequest(l, r, method, ww.Status(), ww.BytesWritten(), time.Since(t0))
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

func logRequest(l logrus.FieldLogger, r *http.Request, method string, status int, bytes int, service time.Duration) {
	log := l.WithFields(logrus.Fields{
		"method":      method,
		"host":        r.Host,
		"path":        r.URL.RequestURI(),
		"remote_addr": r.RemoteAddr,
		"user_agent":  r.UserAgent(),
		"at":          "finish",
	})

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if route := rctx.RoutePattern(); route != "" {
			log = log.WithField("route", route)
		}
	}

	if status > 0 {
		log = log.WithField("status", status)
	}

	if bytes > 0 {
		log = log.WithField("bytes", bytes)
	}

	log = log.WithField("service", fmt.Sprintf("%dms", service/time.Millisecond))

	if robot := r.Header.Get("X-Heroku-Robot"); robot != "" {
		log = log.WithField("robot", robot)
	}

	log.Info()
}
