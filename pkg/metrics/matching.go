package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchingMetrics records the outcome of match-generation runs.
type MatchingMetrics struct {
	duration       *prometheus.HistogramVec
	pairsScored    prometheus.Counter
	matchesWritten prometheus.Counter
	pairFailures   prometheus.Counter
	remoteFallback prometheus.Counter
}

// NewMatchingMetrics registers the matching metrics on the provided registerer.
func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	if reg == nil {
		return &MatchingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_run_duration_seconds",
		Help:    "Duration of match generation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	pairsScored := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matching_pairs_scored_total",
		Help: "Listing/kitchen pairs scored.",
	})
	matchesWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matching_matches_written_total",
		Help: "Match rows upserted above the acceptance threshold.",
	})
	pairFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matching_pair_failures_total",
		Help: "Pair upserts that failed and were skipped.",
	})
	remoteFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matching_remote_fallback_total",
		Help: "Remote scoring calls that fell back to the heuristic.",
	})
	reg.MustRegister(duration, pairsScored, matchesWritten, pairFailures, remoteFallback)
	return &MatchingMetrics{
		duration:       duration,
		pairsScored:    pairsScored,
		matchesWritten: matchesWritten,
		pairFailures:   pairFailures,
		remoteFallback: remoteFallback,
	}
}

// ObserveRun records the duration of one generation run.
func (m *MatchingMetrics) ObserveRun(trigger string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// AddPairsScored adds to the scored-pair counter.
func (m *MatchingMetrics) AddPairsScored(n int) {
	if m == nil || m.pairsScored == nil {
		return
	}
	m.pairsScored.Add(float64(n))
}

// AddMatchesWritten adds to the written-match counter.
func (m *MatchingMetrics) AddMatchesWritten(n int) {
	if m == nil || m.matchesWritten == nil {
		return
	}
	m.matchesWritten.Add(float64(n))
}

// AddPairFailures adds to the failed-pair counter.
func (m *MatchingMetrics) AddPairFailures(n int) {
	if m == nil || m.pairFailures == nil {
		return
	}
	m.pairFailures.Add(float64(n))
}

// IncRemoteFallback counts one heuristic fallback.
func (m *MatchingMetrics) IncRemoteFallback() {
	if m == nil || m.remoteFallback == nil {
		return
	}
	m.remoteFallback.Inc()
}
