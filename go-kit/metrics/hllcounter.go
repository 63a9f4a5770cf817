/* Copyright (c) 2018 Salesforce
 * All rights reserved.
 * Licensed under the BSD 3-Clause license.
 * For full license text, see LICENSE.txt file in the repo root  or https://opensource.org/licenses/BSD-3-Clause
 */

package metrics

import (
	"sync"

	hll "github.com/axiomhq/hyperloglog"
)

var _ CardinalityCounter = &HLLCounter{}

// HLLCounter is a CardinalityCounter backed by a HyperLogLog sketch. It is
// used to estimate how many distinct uri tag values an instrumented metric
// has produced.
type HLLCounter struct {
	Name string
	lvs  []string

	mu      sync.Mutex
	counter *hll.Sketch
}

// NewHLLCounter creates a new HyperLogLog based counter.
func NewHLLCounter(name string) *HLLCounter {
	return &HLLCounter{
		Name:    name,
		counter: hll.New(),
	}
}

// With returns a copy of the counter carrying the merged label values.
func (c *HLLCounter) With(labelValues ...string) CardinalityCounter {
	lvs := make([]string, 0, len(c.lvs)+len(labelValues))
	lvs = append(lvs, c.lvs...)
	lvs = append(lvs, labelValues...)

	c.mu.Lock()
	defer c.mu.Unlock()
	return &HLLCounter{
		Name:    c.Name,
		lvs:     lvs,
		counter: c.counter.Clone(),
	}
}

// Insert adds b to the set being counted.
func (c *HLLCounter) Insert(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter.Insert(b)
}

// Estimate returns the current cardinality estimate.
func (c *HLLCounter) Estimate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter.Estimate()
}

// EstimateReset returns the current estimate and starts counting a new set.
func (c *HLLCounter) EstimateReset() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.counter.Estimate()
	c.counter = hll.New()
	return v
}

// LabelValues returns the label values of the counter.
func (c *HLLCounter) LabelValues() []string {
	return c.lvs
}
