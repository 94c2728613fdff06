package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BridgeMetrics records delivery attempts against the main backend.
type BridgeMetrics struct {
	deliveries *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewBridgeMetrics registers bridge delivery metrics on the provided registerer.
func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	if reg == nil {
		return &BridgeMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_deliveries_total",
		Help: "Bridge batch deliveries by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_delivery_duration_seconds",
		Help:    "Duration of bridge delivery attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(deliveries, duration)
	return &BridgeMetrics{
		deliveries: deliveries,
		duration:   duration,
	}
}

// ObserveDelivery records an attempt outcome ("synced", "failed" or "skipped").
func (m *BridgeMetrics) ObserveDelivery(outcome string, duration time.Duration) {
	if m == nil || m.deliveries == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.deliveries.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}
