// Package metrics registers the Prometheus vectors internal/manager updates
// around every engine operation.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/slavakukuyev/elevator-go/internal/constants"
)

const cabinIDLabel = constants.CabinIDLabel

var (
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one Engine.Tick call.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	submitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "submit_duration_seconds",
			Help:      "Wall-clock duration of one Engine.Submit call.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	admissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "admissions_total",
			Help:      "Request admission outcomes by AdmissionOutcome.",
		},
		[]string{"outcome"},
	)

	timedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "requests_timed_out_total",
			Help:      "Waiting groups evicted after exceeding MaxWaitTime.",
		},
	)

	pendingQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "pending_queue_depth",
			Help:      "building.pending() length as of the last tick.",
		},
	)

	conservationGap = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "conservation_gap",
			Help:      "Admitted minus Delivered minus TimedOut minus onboard, expected 0 at rest.",
		},
	)

	dispatchSuccessRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "dispatch_success_rate",
			Help:      "Dispatcher.stats.SuccessRate() as of the last tick.",
		},
	)

	dispatchMeanWaitSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "dispatch_mean_wait_seconds",
			Help:      "Dispatcher.stats.MeanWait() as of the last tick.",
		},
	)

	cabinLoad = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "cabin_load",
			Help:      "Persons currently onboard a cabin.",
		},
		[]string{cabinIDLabel},
	)

	cabinCurrentFloor = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "cabin_current_floor",
			Help:      "A cabin's current floor.",
		},
		[]string{cabinIDLabel},
	)

	managerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "manager_errors_total",
			Help:      "Errors surfaced by internal/manager, by kind.",
		},
		[]string{"kind"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, endpoint, and status code.",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	avgResponseTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "avg_response_time_seconds",
			Help:      "Most recent response time sample for a named operation class.",
		},
		[]string{"operation"},
	)

	httpErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "http_errors_total",
			Help:      "HTTP-layer errors by error type and originating component.",
		},
		[]string{"error_type", "component"},
	)

	memoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "memory_usage_bytes",
			Help:      "Process memory usage by kind (alloc, sys, heap_objects).",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		tickDuration,
		submitDuration,
		admissionsTotal,
		timedOutTotal,
		pendingQueueDepth,
		conservationGap,
		dispatchSuccessRate,
		dispatchMeanWaitSeconds,
		cabinLoad,
		cabinCurrentFloor,
		managerErrorsTotal,
		httpRequestsTotal,
		httpRequestDuration,
		avgResponseTime,
		httpErrorsTotal,
		memoryUsage,
	)
}

func RecordTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}

func RecordSubmitDuration(seconds float64) {
	submitDuration.Observe(seconds)
}

func IncAdmission(outcome string) {
	admissionsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
}

func AddTimedOut(count float64) {
	timedOutTotal.Add(count)
}

func SetPendingQueueDepth(depth float64) {
	pendingQueueDepth.Set(depth)
}

func SetConservationGap(gap float64) {
	conservationGap.Set(gap)
}

func SetDispatchSuccessRate(rate float64) {
	dispatchSuccessRate.Set(rate)
}

func SetDispatchMeanWaitSeconds(seconds float64) {
	dispatchMeanWaitSeconds.Set(seconds)
}

func SetCabinLoad(cabinID int, load float64) {
	cabinLoad.With(prometheus.Labels{cabinIDLabel: strconv.Itoa(cabinID)}).Set(load)
}

func SetCabinCurrentFloor(cabinID int, floor float64) {
	cabinCurrentFloor.With(prometheus.Labels{cabinIDLabel: strconv.Itoa(cabinID)}).Set(floor)
}

func IncManagerError(kind string) {
	managerErrorsTotal.With(prometheus.Labels{"kind": kind}).Inc()
}

// RecordHTTPRequest records a completed HTTP request's outcome and latency.
func RecordHTTPRequest(method, endpoint, statusCode string, seconds float64) {
	httpRequestsTotal.With(prometheus.Labels{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
	}).Inc()
	httpRequestDuration.With(prometheus.Labels{"method": method, "endpoint": endpoint}).Observe(seconds)
}

// SetAvgResponseTime records the latest response time sample for a named
// operation class (e.g. "submit_request", "health_check", "system").
func SetAvgResponseTime(operation string, seconds float64) {
	avgResponseTime.With(prometheus.Labels{"operation": operation}).Set(seconds)
}

// IncError counts an HTTP-layer error by type and originating component.
func IncError(errorType, component string) {
	httpErrorsTotal.With(prometheus.Labels{"error_type": errorType, "component": component}).Inc()
}

// SetMemoryUsage records a process memory reading by kind.
func SetMemoryUsage(kind string, bytes float64) {
	memoryUsage.With(prometheus.Labels{"kind": kind}).Set(bytes)
}
