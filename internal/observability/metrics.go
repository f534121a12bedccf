package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "riskpoint"

// Metrics holds the counters and histograms for fetching and scoring.
type Metrics struct {
	FetchRequests *prometheus.CounterVec   // labels: outcome={success,error,cached,blocked}
	FetchDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec   // labels: result={hit,miss}

	ScoringPasses     *prometheus.CounterVec // labels: outcome={success,incomplete,error}
	ScoringDuration   prometheus.Histogram
	UnresolvedTargets prometheus.Counter
	MessageFallbacks  prometheus.Counter

	HTTPRequests *prometheus.CounterVec // labels: route, code
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Outbound feed and message-store fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of outbound fetches that reached the network.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		ScoringPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_passes_total",
			Help:      "Scoring submissions by outcome.",
		}, []string{"outcome"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_duration_seconds",
			Help:      "Duration of a scoring pass including message resolution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		UnresolvedTargets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_impact_targets_total",
			Help:      "Impact formula targets that referenced unanswered questions.",
		}),
		MessageFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_fallbacks_total",
			Help:      "Result messages replaced by fallback text.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.CacheLookups,
		m.ScoringPasses,
		m.ScoringDuration,
		m.UnresolvedTargets,
		m.MessageFallbacks,
		m.HTTPRequests,
	}
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting registers with a fresh registry so tests can
// build as many instances as they like.
func NewMetricsForTesting() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewMetrics(reg), reg
}
