// Package svclog provides logging facilities for standard services.
package svclog

import (
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config for logger.
type Config struct {
	AppName  string `env:"APP_NAME,required"`
	Deploy   string `env:"DEPLOY,required"`
	Dyno     string `env:"DYNO"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// WarnInterval and WarnBurst bound how often instrumentation misuse
	// is reported.
	WarnInterval time.Duration `env:"LOG_WARN_INTERVAL,default=1s"`
	WarnBurst    int           `env:"LOG_WARN_BURST,default=10"`
}

// NewLogger returns a new logger that includes app and deploy key/value pairs
// in each log line.
func NewLogger(cfg Config) logrus.FieldLogger {
	logger := logrus.WithFields(logrus.Fields{
		"app":    cfg.AppName,
		"deploy": cfg.Deploy,
	})
	if cfg.Dyno != "" {
		logger = logger.WithField("dyno", cfg.Dyno)
	}

	if l, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(l)
	}
	return logger
}

// NewWarnLimiter returns the limiter warnings of the exchange instruments
// are sampled with.
func NewWarnLimiter(cfg Config) *rate.Limiter {
	every := cfg.WarnInterval
	if every <= 0 {
		every = time.Second
	}
	burst := cfg.WarnBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(every), burst)
}

type printfer interface {
	Printf(format string, args ...interface{})
}

// SampleLogger drops log lines above a configured rate.
type SampleLogger struct {
	logger  printfer
	limiter *rate.Limiter
}

// NewSampleLogger creates a rate limited logger that lets through at most
// logsBurstLimit lines per logBurstWindow.
func NewSampleLogger(printfer printfer, logsBurstLimit int, logBurstWindow time.Duration) *SampleLogger {
	limiter := rate.NewLimiter(rate.Every(logBurstWindow), logsBurstLimit)
	return &SampleLogger{
		logger:  printfer,
		limiter: limiter,
	}
}

func (l *SampleLogger) Printf(format string, args ...interface{}) {
	if l.limiter.Allow() {
		l.logger.Printf(format, args...)
	}
}
