package httpmetrics

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// UnmatchedURI is the uri of server requests that matched no route.
const UnmatchedURI = "UNMATCHED_URI"

type serverStateKey struct{}

// serverState is attached to the context of every instrumented request.
type serverState struct {
	exchange   *webmetrics.Exchange
	err        error
	errorRoute bool
}

func stateFrom(ctx context.Context) *serverState {
	st, _ := ctx.Value(serverStateKey{}).(*serverState)
	return st
}

// ExchangeFrom returns the exchange of the instrumented request ctx belongs
// to.
func ExchangeFrom(ctx context.Context) (*webmetrics.Exchange, bool) {
	st := stateFrom(ctx)
	if st == nil {
		return nil, false
	}
	return st.exchange, true
}

// SetError attaches err to the response of r. The exchange is tagged with
// the kind of err unless the response is rendered by an ErrorRoute, and
// its status defaults to 500 unless err carries its own.
func SetError(r *http.Request, err error) {
	if st := stateFrom(r.Context()); st != nil {
		st.err = err
	}
}

// ErrorRoute wraps a handler which renders errors, such as a chi NotFound
// or MethodNotAllowed handler. Failures attached to requests it serves are
// considered handled and the exchange counts as a success.
func ErrorRoute(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if st := stateFrom(r.Context()); st != nil {
			st.errorRoute = true
		}
		h.ServeHTTP(w, r)
	})
}

// NewServer returns an HTTP middleware which times every request whose path
// matches cfg.ServerPaths and records it into reg. The route template is
// read from the chi routing context; the middleware may be installed with
// chi's Use or around a chi router.
//
// A handler panic is recorded as a failure and re-raised. When server
// instrumentation is disabled by cfg, the middleware returns next.
func NewServer(reg metricsregistry.Registry, cfg webmetrics.Config, opts ...webmetrics.Option) func(http.Handler) http.Handler {
	if !cfg.ServerActive() {
		return func(next http.Handler) http.Handler { return next }
	}

	paths := webmetrics.PathPatterns(cfg.ServerPaths)
	opts = append([]webmetrics.Option{webmetrics.WithReportClientErrorURIs(cfg.ReportClientErrorURIs)}, opts...)
	in := webmetrics.NewInstrument(reg, webmetrics.ServerRequestsMetric, opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !paths.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			rctx, _ := ctx.Value(chi.RouteCtxKey).(*chi.Context)
			if rctx == nil {
				// chi routers reuse a routing context found on the request.
				rctx = chi.NewRouteContext()
				ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
			}
			st := &serverState{exchange: in.Start(r.Method)}
			r = r.WithContext(context.WithValue(ctx, serverStateKey{}, st))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				if p := recover(); p != nil {
					st.exchange.OnFailure(panicError(p), routeTemplate(rctx), "")
					panic(p)
				}
			}()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Assume no Write or WriteHeader means OK.
				status = http.StatusOK
			}
			st.exchange.OnResponse(webmetrics.Response{
				StatusCode: status,
				Err:        st.err,
				ErrorRoute: st.errorRoute,
			}, routeTemplate(rctx), "")
		})
	}
}

// routeTemplate joins the patterns of the routers which handled the request,
// e.g. []string{"/api/*", "/orders/{id}"} is /api/orders/{id}.
func routeTemplate(rctx *chi.Context) *string {
	if len(rctx.RoutePatterns) == 0 {
		u := UnmatchedURI
		return &u
	}

	tmpl := strings.Join(rctx.RoutePatterns, "")
	for strings.Contains(tmpl, "/*/") {
		tmpl = strings.ReplaceAll(tmpl, "/*/", "/")
	}
	return &tmpl
}

func panicError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &webmetrics.PanicError{Value: p}
}
