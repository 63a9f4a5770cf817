// Package runtimemetrics reports Go runtime statistics next to the exchange
// metrics of a service, so that latency regressions can be read against
// goroutine counts, heap growth and GC pauses.
//
// It collects the following metrics:
//
//	go.goroutines - number of goroutines
//	go.mem.alloc-bytes - allocated bytes for heap objects
//	go.mem.sys-bytes - bytes requested from OS
//	go.mem.total-alloc-bytes - cumulative total allocated bytes for heap objects
//	go.gc.pause-duration.ms - histogram of GC pause durations
//	go.gc.next-target-heap-size-bytes - target heap size of the next GC cycle
//	go.runtime.collect-duration - time spent collecting, in milliseconds
package runtimemetrics
