package httpmetrics

import (
	"context"
	"net/http"
	"strings"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

// EmbeddedServer is the serviceId of requests to a service id given as a
// path, i.e. to the server embedded in this process.
const EmbeddedServer = "embedded-server"

type uriTemplateKey struct{}

type serviceIDKey struct{}

// WithURITemplate returns a copy of ctx in which the outgoing request's uri
// is tmpl, e.g. /users/{id}. Without a template the uri is UNKNOWN.
func WithURITemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, uriTemplateKey{}, tmpl)
}

// WithServiceID returns a copy of ctx in which the outgoing request's
// serviceId is id.
func WithServiceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, serviceIDKey{}, id)
}

func uriTemplate(ctx context.Context) *string {
	if tmpl, ok := ctx.Value(uriTemplateKey{}).(string); ok {
		return &tmpl
	}
	return nil
}

func serviceID(ctx context.Context) string {
	id, _ := ctx.Value(serviceIDKey{}).(string)
	if strings.HasPrefix(id, "/") {
		return EmbeddedServer
	}
	return id
}

// Transport is an http.RoundTripper which times every request it sends.
type Transport struct {
	base  http.RoundTripper
	in    *webmetrics.Instrument
	paths webmetrics.PathPatterns
}

// NewTransport returns a RoundTripper recording every request sent with
// base, or http.DefaultTransport when base is nil, whose path matches
// cfg.ClientPaths. When client instrumentation is disabled by cfg, the base
// transport is returned. Client errors are always reported with their URI
// template.
func NewTransport(base http.RoundTripper, reg metricsregistry.Registry, cfg webmetrics.Config, opts ...webmetrics.Option) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !cfg.ClientActive() {
		return base
	}

	opts = append(opts[:len(opts):len(opts)], webmetrics.WithReportClientErrorURIs(true))
	return &Transport{
		base:  base,
		in:    webmetrics.NewInstrument(reg, webmetrics.ClientRequestsMetric, opts...),
		paths: webmetrics.PathPatterns(cfg.ClientPaths),
	}
}

// NewClient returns a copy of c whose transport is instrumented.
func NewClient(c *http.Client, reg metricsregistry.Registry, cfg webmetrics.Config, opts ...webmetrics.Option) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	cc := *c
	cc.Transport = NewTransport(c.Transport, reg, cfg, opts...)
	return &cc
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.paths.Match(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	ex := t.in.Start(req.Method)
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		ex.OnFailure(err, uriTemplate(ctx), serviceID(ctx))
		return resp, err
	}

	ex.OnResponse(webmetrics.Response{StatusCode: resp.StatusCode}, uriTemplate(ctx), serviceID(ctx))
	return resp, nil
}
