// Package metrics holds the Prometheus collectors shared by readers and writers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse outcomes.
const (
	OutcomeAutoSave = "auto_save"
	OutcomeConfirm  = "confirm"
	OutcomeNoAmount = "no_amount"
)

// Metrics holds the collectors for the voice pipeline.
type Metrics struct {
	parsed     *prometheus.CounterVec
	confidence prometheus.Histogram
	written    *prometheus.CounterVec
	pending    prometheus.Gauge
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns collectors registered once with the global Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a fresh set of collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		parsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxpense_transcripts_parsed_total",
			Help: "Transcripts parsed by source and outcome",
		}, []string{"source", "outcome"}),
		confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxpense_parse_confidence",
			Help:    "Confidence score of parsed expenses",
			Buckets: []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1},
		}),
		written: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxpense_expenses_written_total",
			Help: "Expenses persisted by writer",
		}, []string{"writer"}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "voxpense_pending_confirmations",
			Help: "Expenses waiting for user confirmation",
		}),
	}
}

// ObserveParse records one parse. A nil Metrics is a no-op.
func (m *Metrics) ObserveParse(source, outcome string, confidence float64) {
	if m == nil {
		return
	}
	m.parsed.WithLabelValues(source, outcome).Inc()
	m.confidence.Observe(confidence)
}

// ObserveWritten records n expenses persisted by writer.
func (m *Metrics) ObserveWritten(writer string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.written.WithLabelValues(writer).Add(float64(n))
}

// SetPending reports the number of expenses awaiting confirmation.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
