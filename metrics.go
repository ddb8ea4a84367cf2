package toolmesh

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle of
// the whole fleet. One collector is shared by every Transport a Client
// owns; labels keep destinations apart. Safe for concurrent use; all
// methods are nil-receiver safe so metrics stay strictly opt-in.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec

	bytesSent     *prometheus.CounterVec
	bytesReceived *prometheus.CounterVec

	compressionRatio *prometheus.GaugeVec

	circuitBreakerState *prometheus.GaugeVec

	throttleWait *prometheus.HistogramVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolmesh_requests_total",
				Help: "Total number of requests delivered to destinations",
			},
			[]string{"destination", "method", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolmesh_request_duration_seconds",
				Help:    "Duration of destination requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"destination", "method", "status_code"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolmesh_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"destination", "method"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolmesh_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"destination", "method"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolmesh_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type", "destination"},
		),
		bytesSent: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolmesh_bytes_sent_total",
				Help: "Total request bytes written to destinations",
			},
			[]string{"destination"},
		),
		bytesReceived: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolmesh_bytes_received_total",
				Help: "Total response bytes read from destinations",
			},
			[]string{"destination"},
		),
		compressionRatio: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolmesh_compression_ratio",
				Help: "Last observed uncompressed/compressed payload ratio",
			},
			[]string{"destination"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "toolmesh_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"destination"},
		),
		throttleWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolmesh_throttle_wait_seconds",
				Help:    "Time spent waiting on the client throttle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"destination"},
		),
		registry: registry,
	}
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(destination, method string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	status := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(destination, method, status).Inc()
	mc.requestDuration.WithLabelValues(destination, method, status).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(destination, method string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(destination, method).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(destination, method string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(destination, method).Dec()
}

// RecordRetry increments the retry counter.
func (mc *MetricsCollector) RecordRetry(destination, method string) {
	if mc == nil {
		return
	}

	mc.retriesTotal.WithLabelValues(destination, method).Inc()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, destination string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, destination).Inc()
}

// RecordBytes adds to the sent/received byte counters.
func (mc *MetricsCollector) RecordBytes(destination string, sent, received int64) {
	if mc == nil {
		return
	}

	if sent > 0 {
		mc.bytesSent.WithLabelValues(destination).Add(float64(sent))
	}
	if received > 0 {
		mc.bytesReceived.WithLabelValues(destination).Add(float64(received))
	}
}

// RecordCompressionRatio sets the last observed compression ratio.
func (mc *MetricsCollector) RecordCompressionRatio(destination string, ratio float64) {
	if mc == nil {
		return
	}

	mc.compressionRatio.WithLabelValues(destination).Set(ratio)
}

// RecordCircuitBreakerState sets gauge to breaker state.
func (mc *MetricsCollector) RecordCircuitBreakerState(destination string, state CircuitState) {
	if mc == nil {
		return
	}

	var stateValue float64
	switch state {
	case StateClosed:
		stateValue = 0
	case StateOpen:
		stateValue = 1
	case StateHalfOpen:
		stateValue = 2
	}

	mc.circuitBreakerState.WithLabelValues(destination).Set(stateValue)
}

// RecordThrottleWait observes time spent waiting on the throttle.
func (mc *MetricsCollector) RecordThrottleWait(destination string, wait time.Duration) {
	if mc == nil {
		return
	}

	mc.throttleWait.WithLabelValues(destination).Observe(wait.Seconds())
}
