package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/multilocator/pkg/dispatcher"
)

// DispatcherMetrics is the Prometheus implementation of dispatcher.Recorder,
// covering the seven series from SPEC_FULL.md §4.11.
type DispatcherMetrics struct {
	events             *prometheus.CounterVec
	slotsFired         prometheus.Counter
	positionsPublished prometheus.Counter
	tagsActive         prometheus.Gauge
	estimationDuration prometheus.Histogram
	publishDuration    prometheus.Histogram
	staleness          prometheus.Counter
}

// NewDispatcherMetrics registers the dispatcher's metrics against the
// process-wide registry. Returns nil when metrics are disabled; every
// method below is nil-receiver-safe, so a nil *DispatcherMetrics can be
// passed straight to dispatcher.New as a Recorder and every call is a
// no-op. start.go passes dispatcher.NoopRecorder{} instead when metrics
// are off.
func NewDispatcherMetrics() *DispatcherMetrics {
	if !IsEnabled() {
		return nil
	}
	reg := GetRegistry()

	return &DispatcherMetrics{
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "multilocator_events_total",
				Help: "Total ingress angle events by handling result",
			},
			[]string{"result"},
		),
		slotsFired: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "multilocator_slots_fired_total",
				Help: "Total correlation slots that reached their expected count and fired",
			},
		),
		positionsPublished: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "multilocator_positions_published_total",
				Help: "Total position estimates successfully published",
			},
		),
		tagsActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "multilocator_tags_active",
				Help: "Current number of tags tracked in the registry",
			},
		),
		estimationDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "multilocator_estimation_duration_seconds",
				Help:    "Duration of one RunEstimation call",
				Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
			},
		),
		publishDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "multilocator_publish_duration_seconds",
				Help:    "Duration of one Egress.Publish call",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),
		staleness: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "multilocator_sequence_staleness_events_total",
				Help: "Total times a tag's window evicted a slot as stale",
			},
		),
	}
}

func (m *DispatcherMetrics) RecordEvent(result dispatcher.Result) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(result)).Inc()
}

func (m *DispatcherMetrics) RecordSlotFired() {
	if m == nil {
		return
	}
	m.slotsFired.Inc()
}

func (m *DispatcherMetrics) RecordPositionPublished() {
	if m == nil {
		return
	}
	m.positionsPublished.Inc()
}

func (m *DispatcherMetrics) SetTagsActive(n int) {
	if m == nil {
		return
	}
	m.tagsActive.Set(float64(n))
}

func (m *DispatcherMetrics) ObserveEstimationDuration(seconds float64) {
	if m == nil {
		return
	}
	m.estimationDuration.Observe(seconds)
}

func (m *DispatcherMetrics) ObservePublishDuration(seconds float64) {
	if m == nil {
		return
	}
	m.publishDuration.Observe(seconds)
}

func (m *DispatcherMetrics) RecordStaleness() {
	if m == nil {
		return
	}
	m.staleness.Inc()
}
