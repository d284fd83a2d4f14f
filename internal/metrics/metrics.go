// Package metrics exposes the counters named in SPEC_FULL.md §4
// (sessions started/completed/failed, round latency) via
// github.com/prometheus/client_golang, the metrics client the pack's
// manifests (pushchain-push-chain-node, SAGE-X-project-sage) wire for
// exactly this kind of service-level instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gg18_sessions_started_total",
		Help: "Total signing sessions accepted via POST /sign.",
	})
	SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gg18_sessions_completed_total",
		Help: "Total signing sessions whose result was written via /update_signing_result.",
	})
	SessionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gg18_sessions_failed_total",
		Help: "Total signing sessions that failed before producing a result.",
	})

	roundLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gg18_round_duration_seconds",
		Help:    "Wall-clock time spent in a single keygen/signing round.",
		Buckets: prometheus.DefBuckets,
	}, []string{"round"})
)

// ObserveRound records the wall-clock duration spent in round, keyed by
// round tag.
func ObserveRound(round string, d time.Duration) {
	roundLatency.WithLabelValues(round).Observe(d.Seconds())
}

// Handler serves the Prometheus exposition format for "GET /metrics".
func Handler() http.Handler {
	return promhttp.Handler()
}
