package discard

import (
	"testing"
	"time"

	"github.com/heroku/webmetrics/go-kit/metricsregistry"
)

func TestProviderRecordsNothing(t *testing.T) {
	p := New()
	defer p.Stop()

	reg := metricsregistry.New(p)
	reg.GetOrRegisterTimer("http.server.requests").With("status", "200").Record(time.Second)
	reg.GetOrRegisterCounter("requests").With("status", "200").Add(1)
	reg.GetOrRegisterGauge("inflight").Set(1)
	reg.GetOrRegisterHistogram("sizes", 50).Observe(1)
	reg.GetOrRegisterCardinalityCounter("uris").With("a", "b").Insert([]byte("/a"))
}
