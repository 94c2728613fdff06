package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIngestMetricsObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestMetrics(reg)

	m.ObserveBatch(3, 2, 1, 50*time.Millisecond)
	m.ObserveBatch(1, 0, 0, 10*time.Millisecond)

	assert.Equal(t, float64(4), testutil.ToFloat64(m.scans.WithLabelValues("inserted")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.scans.WithLabelValues("duplicate")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.scans.WithLabelValues("error")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.batches))
}

func TestIngestMetricsNilSafe(t *testing.T) {
	var m *IngestMetrics
	m.ObserveBatch(1, 1, 1, time.Second)

	unregistered := NewIngestMetrics(nil)
	unregistered.ObserveBatch(1, 1, 1, time.Second)
}

func TestBridgeMetricsObserveDelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBridgeMetrics(reg)

	m.ObserveDelivery("synced", 20*time.Millisecond)
	m.ObserveDelivery("synced", 30*time.Millisecond)
	m.ObserveDelivery("failed", 90*time.Second)
	m.ObserveDelivery("", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.deliveries.WithLabelValues("synced")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues("unknown")))
}
