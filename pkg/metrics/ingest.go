package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics records per-batch scan ingestion outcomes.
type IngestMetrics struct {
	scans    *prometheus.CounterVec
	batches  prometheus.Counter
	duration prometheus.Histogram
}

// NewIngestMetrics registers the ingestion metrics on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_scans_total",
		Help: "Scan items processed by outcome.",
	}, []string{"outcome"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_batches_total",
		Help: "Scan batches accepted for ingestion.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_batch_duration_seconds",
		Help:    "Duration of batch ingestion in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(scans, batches, duration)
	return &IngestMetrics{
		scans:    scans,
		batches:  batches,
		duration: duration,
	}
}

// ObserveBatch records a completed batch with its per-outcome counts.
func (m *IngestMetrics) ObserveBatch(inserted, duplicates, errored int, duration time.Duration) {
	if m == nil || m.scans == nil {
		return
	}
	m.batches.Inc()
	m.scans.WithLabelValues("inserted").Add(float64(inserted))
	m.scans.WithLabelValues("duplicate").Add(float64(duplicates))
	m.scans.WithLabelValues("error").Add(float64(errored))
	m.duration.Observe(duration.Seconds())
}
