package metrics

import "github.com/prometheus/client_golang/prometheus"

// RecordMetrics exposes counters/histograms for the reconciliation and
// dual-write flows. All observe methods are nil-safe so wiring metrics stays
// optional in tests.
type RecordMetrics struct {
	reconcileLatency  *prometheus.HistogramVec
	reconcileSize     *prometheus.HistogramVec
	secondaryFailures *prometheus.CounterVec
	ingestTotal       *prometheus.CounterVec
}

func NewRecordMetrics(reg prometheus.Registerer) *RecordMetrics {
	m := &RecordMetrics{
		reconcileLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cliniccrm",
			Subsystem: "records",
			Name:      "reconcile_latency_seconds",
			Help:      "Latency of the two-collection reconcile read",
			Buckets:   prometheus.DefBuckets,
		}, []string{"clinic_id"}),
		reconcileSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cliniccrm",
			Subsystem: "records",
			Name:      "reconcile_result_size",
			Help:      "Merged record count returned per reconcile",
			Buckets:   []float64{0, 10, 50, 100, 500, 1000},
		}, []string{"clinic_id"}),
		secondaryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cliniccrm",
			Subsystem: "records",
			Name:      "secondary_write_failures_total",
			Help:      "Best-effort secondary writes that failed (logged, never surfaced)",
		}, []string{"operation"}),
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cliniccrm",
			Subsystem: "ingest",
			Name:      "appointments_total",
			Help:      "Chatbot appointment events processed",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reconcileLatency, m.reconcileSize, m.secondaryFailures, m.ingestTotal)
	return m
}

func (m *RecordMetrics) ObserveReconcile(clinicID string, size int, seconds float64) {
	if m == nil {
		return
	}
	m.reconcileLatency.WithLabelValues(clinicID).Observe(seconds)
	m.reconcileSize.WithLabelValues(clinicID).Observe(float64(size))
}

func (m *RecordMetrics) ObserveSecondaryFailure(operation string) {
	if m == nil {
		return
	}
	m.secondaryFailures.WithLabelValues(operation).Inc()
}

func (m *RecordMetrics) ObserveIngest(status string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(status).Inc()
}
