package diff

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacemeshos/go-merklediff/merkle"
	"github.com/spacemeshos/go-merklediff/metrics"
)

const (
	namespace  = "diff"
	levelLabel = "level"
)

var (
	exchanges = metrics.NewCounter(
		"exchanges",
		namespace,
		"questions asked to the peer",
		[]string{levelLabel, "result"},
	)
	mismatchedLeaves = metrics.NewCounter(
		"mismatched_leaves",
		namespace,
		"leaves whose digest differs from the peer's",
		[]string{levelLabel},
	)
	sessions = metrics.NewCounter(
		"sessions",
		namespace,
		"completed comparison sessions",
		[]string{"outcome"},
	)
	sessionExchanges = metrics.NewHistogramWithBuckets(
		"session_exchanges",
		namespace,
		"questions asked per session",
		[]string{},
		prometheus.ExponentialBuckets(1, 4, 12),
	)
)

// MetricsTracer reports the comparison progress to prometheus.
type MetricsTracer struct {
	identical, different, failed prometheus.Counter
	exchanges                    prometheus.Observer
}

var _ Tracer = (*MetricsTracer)(nil)

// NewMetricsTracer creates a MetricsTracer.
func NewMetricsTracer() *MetricsTracer {
	return &MetricsTracer{
		identical: sessions.WithLabelValues("identical"),
		different: sessions.WithLabelValues("different"),
		failed:    sessions.WithLabelValues("failed"),
		exchanges: sessionExchanges.WithLabelValues(),
	}
}

func (t *MetricsTracer) OnExchange(level int, _ *merkle.Node, match bool) {
	result := "mismatch"
	if match {
		result = "match"
	}
	exchanges.WithLabelValues(strconv.Itoa(level), result).Inc()
}

func (t *MetricsTracer) OnMismatch(level int, _ *merkle.Node) {
	mismatchedLeaves.WithLabelValues(strconv.Itoa(level)).Inc()
}

func (t *MetricsTracer) OnSessionDone(report *Report, err error) {
	switch {
	case err != nil:
		t.failed.Inc()
	case report.Identical():
		t.identical.Inc()
	default:
		t.different.Inc()
	}
	if report != nil {
		t.exchanges.Observe(float64(report.Exchanges))
	}
}
