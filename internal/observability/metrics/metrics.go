// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "relationship_notes"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Dictation metrics
	DictationSessionsStarted prometheus.Counter
	DictationSessionsActive  prometheus.Gauge
	DictationErrors          prometheus.Counter
	SegmentsFinal            prometheus.Counter
	SegmentsInterim          prometheus.Counter

	// AI assist metrics
	AssistRequests prometheus.Counter
	AssistFailures *prometheus.CounterVec
	AssistSkipped  prometheus.Counter
	AssistLatency  prometheus.Histogram

	// Interaction metrics
	InteractionsCreated   prometheus.Counter
	InteractionsRejected  *prometheus.CounterVec
	RemindersScheduled    prometheus.Counter
	SubmitInFlightRejects prometheus.Counter

	// Store metrics
	StoreOps       *prometheus.CounterVec
	StoreOpLatency *prometheus.HistogramVec

	// Event publish metrics
	PublishTotal   *prometheus.CounterVec
	PublishErrors  *prometheus.CounterVec
	PublishLatency *prometheus.HistogramVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		DictationSessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dictation_sessions_started_total",
			Help:      "Total number of dictation sessions started",
		}),
		DictationSessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dictation_sessions_active",
			Help:      "Number of currently listening dictation sessions",
		}),
		DictationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dictation_errors_total",
			Help:      "Total number of recognition errors that ended a session",
		}),
		SegmentsFinal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_final_total",
			Help:      "Total number of final speech segments applied",
		}),
		SegmentsInterim: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_interim_total",
			Help:      "Total number of interim speech segments applied",
		}),

		AssistRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_requests_total",
			Help:      "Total number of AI assist requests issued",
		}),
		AssistFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_failures_total",
			Help:      "Total number of failed AI assist requests",
		}, []string{"reason"}),
		AssistSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assist_skipped_total",
			Help:      "Total number of assist requests skipped for blank prompts",
		}),
		AssistLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assist_latency_seconds",
			Help:      "Latency of AI assist requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		InteractionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_created_total",
			Help:      "Total number of interactions persisted",
		}),
		InteractionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_rejected_total",
			Help:      "Total number of submissions rejected by validation",
		}, []string{"field"}),
		RemindersScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of interactions saved with a reminder",
		}),
		SubmitInFlightRejects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_in_flight_rejects_total",
			Help:      "Total number of submissions rejected while one was in flight",
		}),

		StoreOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_ops_total",
			Help:      "Total number of store operations",
		}, []string{"op", "outcome"}),
		StoreOpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_op_latency_seconds",
			Help:      "Latency of store operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"op"}),

		PublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Total number of events published",
		}, []string{"topic", "event_type"}),
		PublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total number of failed event publishes",
		}, []string{"topic", "event_type"}),
		PublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_latency_seconds",
			Help:      "Latency of event publishes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"topic"}),

		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
	}
}

// RecordStoreOp records outcome and latency for one store operation.
func (m *Metrics) RecordStoreOp(op string, err error, seconds float64) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.StoreOps.WithLabelValues(op, outcome).Inc()
	m.StoreOpLatency.WithLabelValues(op).Observe(seconds)
}

// RecordPublish records outcome and latency for one event publish.
func (m *Metrics) RecordPublish(topic, eventType string, err error, seconds float64) {
	m.PublishTotal.WithLabelValues(topic, eventType).Inc()
	if err != nil {
		m.PublishErrors.WithLabelValues(topic, eventType).Inc()
	}
	m.PublishLatency.WithLabelValues(topic).Observe(seconds)
}

// RecordAssist records one completed assist request.
func (m *Metrics) RecordAssist(err error, elapsed time.Duration) {
	if err != nil {
		m.AssistFailures.WithLabelValues("upstream").Inc()
	}
	m.AssistLatency.Observe(elapsed.Seconds())
}
