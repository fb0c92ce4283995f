package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketpulse"

var (
	// RefreshTotal counts refresh cycles by status (ok, error, skipped).
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of refresh cycles",
		},
		[]string{"status"},
	)

	// RefreshDuration measures completed refresh cycles.
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh cycles in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// NewsSourceErrors counts isolated news source failures.
	NewsSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_source_errors_total",
			Help:      "Total number of failed news source fetches",
		},
		[]string{"source"},
	)

	// NewsItems is the number of news items after deduplication.
	NewsItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "news_items",
			Help:      "Number of news items in the latest fetch",
		},
	)

	// MarketFetchTotal counts market fetches by result (fresh, cache, stale, empty).
	MarketFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_fetch_total",
			Help:      "Total number of market fetches by result",
		},
		[]string{"result"},
	)

	// MarketBranchErrors counts isolated market branch failures.
	MarketBranchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_branch_errors_total",
			Help:      "Total number of failed market provider branches",
		},
		[]string{"branch"},
	)

	// QuoteEstimates counts quotes synthesized from the last known price.
	QuoteEstimates = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_estimates_total",
			Help:      "Total number of quotes replaced by a local estimate",
		},
	)

	// RuleFailures counts rules excluded from a cycle after a failure.
	RuleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Total number of rule evaluation failures",
		},
		[]string{"rule"},
	)

	// AlertsGenerated is the number of alerts in the latest cycle.
	AlertsGenerated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_generated",
			Help:      "Number of alerts produced by the latest rule evaluation",
		},
	)

	// StreamClients is the number of connected snapshot stream clients.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Number of connected websocket stream clients",
		},
	)
)

// RecordRefresh records a finished refresh cycle.
func RecordRefresh(status string, seconds float64) {
	RefreshTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		RefreshDuration.Observe(seconds)
	}
}
