package kumpul

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the coordinator's request
// lifecycle: submissions, coalescing, transfers, retries, cancellations and
// fan-out deliveries. It is safe for concurrent use, and all recording
// methods are nil-receiver safe.
type MetricsCollector struct {
	submissionsTotal  *prometheus.CounterVec
	coalescedTotal    *prometheus.CounterVec
	waitersRegistered *prometheus.GaugeVec

	transfersTotal    *prometheus.CounterVec
	transferDuration  *prometheus.HistogramVec
	transfersInFlight *prometheus.GaugeVec

	retriesTotal          *prometheus.CounterVec
	retriesAbandonedTotal *prometheus.CounterVec

	cancellationsTotal *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		submissionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_submissions_total",
				Help: "Total number of calls submitted to the coordinator",
			},
			[]string{"request_type"},
		),
		coalescedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_coalesced_total",
				Help: "Total number of submissions that rode an existing in-flight transfer",
			},
			[]string{"request_type"},
		),
		waitersRegistered: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kumpul_waiters_registered",
				Help: "Number of waiters currently registered per request type",
			},
			[]string{"request_type"},
		),
		transfersTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_transfers_total",
				Help: "Total number of completed transfers by terminal outcome",
			},
			[]string{"request_type", "outcome"},
		),
		transferDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kumpul_transfer_duration_seconds",
				Help:    "Elapsed time from submission to terminal outcome in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"request_type"},
		),
		transfersInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kumpul_transfers_in_flight",
				Help: "Number of transfers currently in flight",
			},
			[]string{"request_type"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_retries_total",
				Help: "Total number of scheduled retry attempts",
			},
			[]string{"request_type", "attempt"},
		),
		retriesAbandonedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_retries_abandoned_total",
				Help: "Total number of retries skipped because no waiters remained",
			},
			[]string{"request_type"},
		),
		cancellationsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_cancellations_total",
				Help: "Total number of cancellations by scope (one or all)",
			},
			[]string{"request_type", "scope"},
		),
		deliveriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumpul_deliveries_total",
				Help: "Total number of outcomes fanned out to waiters",
			},
			[]string{"request_type"},
		),
	}

	if reg, ok := registry.(*prometheus.Registry); ok {
		mc.registry = reg
	}
	return mc
}

// RecordSubmission increments the submission counter.
func (mc *MetricsCollector) RecordSubmission(requestType string) {
	if mc == nil {
		return
	}
	mc.submissionsTotal.WithLabelValues(requestType).Inc()
}

// RecordCoalesced increments the coalesced-submission counter.
func (mc *MetricsCollector) RecordCoalesced(requestType string) {
	if mc == nil {
		return
	}
	mc.coalescedTotal.WithLabelValues(requestType).Inc()
}

// RecordWaiters sets the registered-waiter gauge for a request type.
func (mc *MetricsCollector) RecordWaiters(requestType string, count int) {
	if mc == nil {
		return
	}
	mc.waitersRegistered.WithLabelValues(requestType).Set(float64(count))
}

// RecordTransferStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordTransferStart(requestType string) {
	if mc == nil {
		return
	}
	mc.transfersInFlight.WithLabelValues(requestType).Inc()
}

// RecordTransferEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordTransferEnd(requestType string) {
	if mc == nil {
		return
	}
	mc.transfersInFlight.WithLabelValues(requestType).Dec()
}

// RecordTransfer records a completed transfer and its duration.
func (mc *MetricsCollector) RecordTransfer(requestType, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}
	mc.transfersTotal.WithLabelValues(requestType, outcome).Inc()
	mc.transferDuration.WithLabelValues(requestType).Observe(duration.Seconds())
}

// RecordRetry increments the retry counter for an attempt.
func (mc *MetricsCollector) RecordRetry(requestType string, attempt int) {
	if mc == nil {
		return
	}
	mc.retriesTotal.WithLabelValues(requestType, strconv.Itoa(attempt)).Inc()
}

// RecordRetryAbandoned increments the abandoned-retry counter.
func (mc *MetricsCollector) RecordRetryAbandoned(requestType string) {
	if mc == nil {
		return
	}
	mc.retriesAbandonedTotal.WithLabelValues(requestType).Inc()
}

// RecordCancellation increments the cancellation counter.
func (mc *MetricsCollector) RecordCancellation(requestType, scope string) {
	if mc == nil {
		return
	}
	mc.cancellationsTotal.WithLabelValues(requestType, scope).Inc()
}

// RecordDeliveries adds the number of waiters an outcome was fanned out to.
func (mc *MetricsCollector) RecordDeliveries(requestType string, count int) {
	if mc == nil {
		return
	}
	mc.deliveriesTotal.WithLabelValues(requestType).Add(float64(count))
}

// GetRegistry exposes the underlying prometheus registry, if the collector
// was built on one.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	return mc.registry
}
