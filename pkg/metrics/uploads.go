package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records outcomes of the ingestion pipeline.
type UploadMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	rejected prometheus.Counter
	rows     prometheus.Histogram
}

// NewUploadMetrics registers the upload metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upload_duration_seconds",
		Help:    "Duration of upload pipeline runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upload_outcomes_total",
		Help: "Pipeline runs by terminal outcome.",
	}, []string{"outcome"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_rejected_total",
		Help: "Uploads rejected before any record was created.",
	})
	rows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upload_row_count",
		Help:    "Data rows counted per accepted upload.",
		Buckets: prometheus.ExponentialBuckets(1, 10, 7),
	})
	reg.MustRegister(duration, outcomes, rejected, rows)
	return &UploadMetrics{
		duration: duration,
		outcomes: outcomes,
		rejected: rejected,
		rows:     rows,
	}
}

// ObserveOutcome records one finished pipeline run.
func (m *UploadMetrics) ObserveOutcome(outcome string, duration time.Duration) {
	if m == nil || m.outcomes == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.outcomes.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncRejected counts an upload turned away at the extension gate.
func (m *UploadMetrics) IncRejected() {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Inc()
}

// ObserveRowCount records the row count computed for an accepted upload.
func (m *UploadMetrics) ObserveRowCount(rows int) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.Observe(float64(rows))
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
