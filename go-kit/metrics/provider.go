/* Copyright (c) 2018 Salesforce
 * All rights reserved.
 * Licensed under the BSD 3-Clause license.
 * For full license text, see LICENSE.txt file in the repo root  or https://opensource.org/licenses/BSD-3-Clause
 */

// Package metrics wraps the go-kit metric types with the Provider contract
// used by webmetrics. Providers hand out counters, gauges, histograms and
// cardinality estimators by name; label values are attached with With.
package metrics

import (
	"github.com/go-kit/kit/metrics"
)

// Provider represents the different types of metrics that a backend can
// expose. Implementations must be safe for concurrent use and must return the
// same series when asked twice for the same name and label values.
type Provider interface {
	NewCounter(name string) metrics.Counter
	NewGauge(name string) metrics.Gauge
	NewHistogram(name string, buckets int) metrics.Histogram
	NewExplicitHistogram(name string, fn DistributionFunc) metrics.Histogram
	NewCardinalityCounter(name string) CardinalityCounter
	Stop()
}
