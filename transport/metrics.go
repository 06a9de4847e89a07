package transport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-merklediff/metrics"
)

const (
	namespace      = "transport"
	transportLabel = "transport"
)

var (
	askLatency = metrics.NewHistogramWithBuckets(
		"ask_latency_seconds",
		namespace,
		"round trip time of a single question",
		[]string{transportLabel, "result"},
		prometheus.ExponentialBuckets(0.0001, 2, 16),
	)
	digestBytes = metrics.NewCounter(
		"digest_bytes",
		namespace,
		"digest bytes exchanged with the peer",
		[]string{transportLabel, "direction"},
	)
)

func newTracker(name string) *tracker {
	return &tracker{
		latency:        askLatency.WithLabelValues(name, "success"),
		latencyFailure: askLatency.WithLabelValues(name, "failure"),
		sent:           digestBytes.WithLabelValues(name, "sent"),
		received:       digestBytes.WithLabelValues(name, "received"),
	}
}

type tracker struct {
	latency, latencyFailure prometheus.Observer
	sent, received          prometheus.Counter
}
