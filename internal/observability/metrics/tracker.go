// Package metrics provides custom Prometheus metrics for the interaction
// tracker components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics contains all Prometheus metrics related to detection
// ingestion and interaction event evaluation.
type TrackerMetrics struct {
	DetectionsReceived prometheus.Counter
	MalformedPayloads  prometheus.Counter
	TrackedEntities    prometheus.Gauge
	ActiveEvents       prometheus.Gauge
	EventActivations   prometheus.Counter
	EventClears        prometheus.Counter
	EvaluationDuration prometheus.Histogram
}

// NewTrackerMetrics creates a new instance of TrackerMetrics registered on
// the given registry.
func NewTrackerMetrics(registry *prometheus.Registry) (*TrackerMetrics, error) {
	m := &TrackerMetrics{
		DetectionsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_detections_received_total",
			Help: "Total number of detection updates received from the feed",
		}),
		MalformedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_malformed_payloads_total",
			Help: "Total number of detection payloads dropped as unparsable",
		}),
		TrackedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_entities",
			Help: "Current number of tracked objects across all contexts",
		}),
		ActiveEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_active_events",
			Help: "Current number of published interaction events",
		}),
		EventActivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_event_activations_total",
			Help: "Total number of interaction event activations emitted",
		}),
		EventClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_event_clears_total",
			Help: "Total number of interaction event clears emitted",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_evaluation_duration_seconds",
			Help:    "Duration of one evaluation pass over all contexts",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	collectors := []prometheus.Collector{
		m.DetectionsReceived,
		m.MalformedPayloads,
		m.TrackedEntities,
		m.ActiveEvents,
		m.EventActivations,
		m.EventClears,
		m.EvaluationDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register tracker metrics: %w", err)
		}
	}

	return m, nil
}

// IncrementDetectionsReceived increments the count of detection updates.
func (m *TrackerMetrics) IncrementDetectionsReceived() {
	m.DetectionsReceived.Inc()
}

// IncrementMalformedPayloads increments the count of dropped payloads.
func (m *TrackerMetrics) IncrementMalformedPayloads() {
	m.MalformedPayloads.Inc()
}

// SetTrackedEntities updates the tracked object gauge.
func (m *TrackerMetrics) SetTrackedEntities(n int) {
	m.TrackedEntities.Set(float64(n))
}

// SetActiveEvents updates the published event gauge.
func (m *TrackerMetrics) SetActiveEvents(n int) {
	m.ActiveEvents.Set(float64(n))
}

// IncrementActivations increments the count of emitted activations.
func (m *TrackerMetrics) IncrementActivations() {
	m.EventActivations.Inc()
}

// IncrementClears increments the count of emitted clears.
func (m *TrackerMetrics) IncrementClears() {
	m.EventClears.Inc()
}

// ObserveEvaluationDuration records the duration of one evaluation pass.
func (m *TrackerMetrics) ObserveEvaluationDuration(seconds float64) {
	m.EvaluationDuration.Observe(seconds)
}
