package service

import (
	"time"

	"github.com/heroku/webmetrics"
	"github.com/heroku/webmetrics/cmdutil/metrics"
	"github.com/heroku/webmetrics/cmdutil/svclog"
)

// standardConfig is used when service.New is called.
type standardConfig struct {
	Logger      svclog.Config
	Metrics     metrics.Config
	HTTPMetrics webmetrics.Config
	Runtime     runtimeConfig
	Platform    platformConfig
}

// runtimeConfig controls the Go runtime collector.
type runtimeConfig struct {
	Enabled  bool          `env:"METRICS_RUNTIME_ENABLED,default=true"`
	Interval time.Duration `env:"METRICS_RUNTIME_INTERVAL,default=20s"`
}

// platformConfig captures the ports of the service.
type platformConfig struct {
	// Port is the primary port to listen on.
	Port int `env:"PORT,default=5000"`

	// MetricsPort, when set, serves the scrape endpoint on its own
	// listener instead of next to the application routes.
	MetricsPort int `env:"METRICS_PORT"`
}
