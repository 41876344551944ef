package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records batch outcomes for background loops (outbox publisher, analytics worker).
type WorkerMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quoteengine_worker_duration_seconds",
		Help:    "Duration of a worker unit of work in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_worker_success_total",
		Help: "Successful worker units of work.",
	}, []string{"worker"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_worker_failure_total",
		Help: "Failed worker units of work.",
	}, []string{"worker"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_worker_dead_lettered_total",
		Help: "Units of work parked for manual review, by reason.",
	}, []string{"worker", "reason"})
	reg.MustRegister(duration, success, failure, deadLettered)
	return &WorkerMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		deadLettered: deadLettered,
	}
}

// ObserveDuration records the duration for the named worker.
func (w *WorkerMetrics) ObserveDuration(worker string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named worker.
func (w *WorkerMetrics) IncSuccess(worker string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(worker)).Inc()
}

// IncFailure increments the failure counter for the named worker.
func (w *WorkerMetrics) IncFailure(worker string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(worker)).Inc()
}

// IncDeadLettered counts a unit of work that will not be retried.
func (w *WorkerMetrics) IncDeadLettered(worker, reason string) {
	if w == nil || w.deadLettered == nil {
		return
	}
	w.deadLettered.WithLabelValues(normalizeLabel(worker), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
