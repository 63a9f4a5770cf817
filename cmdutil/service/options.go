package service

import "context"

type options struct {
	skipMetricsSuffix   bool
	customMetricsSuffix string
	context             context.Context
}

func (o options) ctx() context.Context {
	if o.context == nil {
		return context.Background()
	}
	return o.context
}

// OptionFunc is a function that modifies internal service options.
type OptionFunc func(*options)

// SkipMetricsSuffix is an OptionFunc that has New skip automatically
// adding the process type from DYNO as a suffix on the metrics prefix.
func SkipMetricsSuffix() OptionFunc {
	return func(o *options) {
		o.skipMetricsSuffix = true
	}
}

// CustomMetricsSuffix is an OptionFunc that has New use the given suffix
// on the metrics prefix instead of inferring it from DYNO.
func CustomMetricsSuffix(s string) OptionFunc {
	return func(o *options) {
		o.customMetricsSuffix = s
	}
}

// WithContext sets the context metric exporters are set up with.
func WithContext(ctx context.Context) OptionFunc {
	return func(o *options) {
		o.context = ctx
	}
}
