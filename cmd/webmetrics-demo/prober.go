package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/heroku/webmetrics/hmiddleware/httpmetrics"
)

// upstreamService is the serviceId tag of probe requests.
const upstreamService = "upstream"

type printfer interface {
	Printf(format string, args ...interface{})
}

// prober checks the health of an upstream through an instrumented client,
// so that its availability shows up in http.client.requests.
type prober struct {
	client   *http.Client
	target   *url.URL
	interval time.Duration
	logger   printfer
}

// Run probes once per interval until ctx is done.
func (p *prober) Run(ctx context.Context) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		if err := p.probe(ctx); err != nil {
			p.logger.Printf("probe failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (p *prober) probe(ctx context.Context) error {
	ctx = httpmetrics.WithURITemplate(ctx, p.target.Path)
	ctx = httpmetrics.WithServiceID(ctx, upstreamService)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target.String(), nil)
	if err != nil {
		return errors.Wrap(err, "building probe request")
	}

	res, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending probe")
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	if res.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("upstream answered %d", res.StatusCode)
	}
	return nil
}
