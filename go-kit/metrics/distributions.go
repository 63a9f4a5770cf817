package metrics

var (
	// FiveSecondDistribution spreads boundaries between 0 and 5000 milliseconds.
	FiveSecondDistribution = WithStandardPercentiles(0, 5000)

	// ThirtySecondDistribution spreads boundaries between 0 and 30,000
	// milliseconds. It is the default for request timers.
	ThirtySecondDistribution = WithStandardPercentiles(0, 30000)

	standardPercentiles = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 0.99, 0.999}
)

// DistributionFunc returns the explicit boundaries of a histogram.
type DistributionFunc func() []float64

// WithStandardPercentiles returns boundaries between min and max that are
// denser at both ends, which suits latency histograms where the P99 and the
// P01 matter more than the median.
func WithStandardPercentiles(min, max float64) DistributionFunc {
	return WithPercentileDistribution(min, max, standardPercentiles)
}

// WithPercentileDistribution scales pattern, a list of percentiles, onto the
// range between min and max.
func WithPercentileDistribution(min, max float64, pattern []float64) DistributionFunc {
	return func() []float64 {
		span := min + max
		offset := span - span*pattern[len(pattern)-1]

		out := make([]float64, len(pattern))
		for i, p := range pattern {
			out[i] = span*p + offset
		}
		return out
	}
}
