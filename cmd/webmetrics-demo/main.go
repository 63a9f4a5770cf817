// Command webmetrics-demo is a small order service showing the exchange
// instrumentation end to end: an instrumented chi router, an instrumented
// HTTP client probing an upstream, and an instrumented gRPC health server.
package main

import (
	"net/url"
	"time"

	"github.com/heroku/webmetrics/cmdutil"
	"github.com/heroku/webmetrics/cmdutil/service"
	"github.com/heroku/webmetrics/cmdutil/svclog"
)

type config struct {
	// UpstreamURL, when set, is probed every ProbeInterval.
	UpstreamURL   *url.URL      `env:"UPSTREAM_URL"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL,default=30s"`

	// GRPCPort, when set, serves the gRPC health service.
	GRPCPort int `env:"GRPC_PORT"`
}

func main() {
	var cfg config
	s := service.New(&cfg)

	s.Add(s.HTTP(newRouter(s.Logger, s.ServerMiddleware(), newOrderStore())))

	if cfg.UpstreamURL != nil {
		pr := &prober{
			client:   s.Client(nil),
			target:   cfg.UpstreamURL,
			interval: cfg.ProbeInterval,
			logger:   svclog.NewSampleLogger(s.Logger.WithField("at", "probe"), 1, time.Minute),
		}
		s.Add(cmdutil.NewContextServer(pr.Run))
	}

	if cfg.GRPCPort != 0 {
		s.Add(newGRPCServer(s.Logger, s.Registry, cfg.GRPCPort, s.InstrumentOptions()...))
	}

	s.Run()
}
