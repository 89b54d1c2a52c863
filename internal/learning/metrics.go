package learning

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the learning service.
type Metrics struct {
	// Request outcomes
	RequestsTotal *prometheus.CounterVec

	// Result quality
	Confidence prometheus.Histogram

	// Request latency
	Duration prometheus.Histogram

	// User state lifecycle
	ActiveUsers    prometheus.Gauge
	EvictionsTotal prometheus.Counter
}

// NewMetrics creates and registers Prometheus metrics for the learning
// service on reg.
//
// A nil reg uses the process-wide default registry; that instance is
// created once and shared by every service in the process, preventing
// "duplicate metrics collector registration" panics. Passing a dedicated
// registry (e.g. prometheus.NewRegistry) keeps a service's metrics
// isolated.
//
// All metrics are prefixed with "metalearn_" for namespacing.
//
// Metrics:
//   - metalearn_requests_total{strategy,outcome} - Count of learning requests
//   - metalearn_confidence - Histogram of result confidence scores
//   - metalearn_request_duration_seconds - Histogram of request latency
//   - metalearn_active_users - Current number of resident user states
//   - metalearn_user_evictions_total - Count of LRU user-state evictions
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		metricsOnce.Do(func() {
			globalMetrics = newMetrics(prometheus.DefaultRegisterer)
		})
		return globalMetrics
	}
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metalearn_requests_total",
				Help: "Total number of learning requests processed",
			},
			[]string{"strategy", "outcome"}, // outcome: "success" or "failure"
		),

		Confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "metalearn_confidence",
				Help:    "Confidence scores of learning results",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),

		Duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "metalearn_request_duration_seconds",
				Help:    "Duration of learning request processing in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		ActiveUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "metalearn_active_users",
				Help: "Current number of resident per-user learning states",
			},
		),

		EvictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "metalearn_user_evictions_total",
				Help: "Total number of user states evicted by the LRU cap",
			},
		),
	}
}
