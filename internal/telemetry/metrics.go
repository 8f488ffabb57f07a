// Package telemetry holds the Prometheus collectors and the HTTP metrics
// middleware.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshharrison/timeloom/internal/cpm"
)

const namespace = "timeloom"

var (
	// APIRequestsTotal counts HTTP requests by method, route and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests handled, by method, route pattern and status code.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes HTTP latency in seconds.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections tracks in-flight requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "HTTP requests currently being served.",
	})

	// ScheduleComputations counts critical path analyses.
	ScheduleComputations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_computations_total",
		Help:      "Critical path analyses run.",
	})

	// ScheduleNonConverged counts analyses where a pass hit its sweep bound.
	ScheduleNonConverged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_non_converged_total",
		Help:      "Critical path analyses that stopped at the sweep bound.",
	})

	// ScheduleSkippedDependencies counts dependencies naming unknown tasks.
	ScheduleSkippedDependencies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_skipped_dependencies_total",
		Help:      "Dependencies ignored because an endpoint was missing.",
	})

	// ScheduleSweeps observes relaxation sweeps per pass.
	ScheduleSweeps = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "schedule_sweeps",
		Help:      "Relaxation sweeps per scheduling pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"pass"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveResult records one analysis.
func ObserveResult(res *cpm.Result) {
	if res == nil {
		return
	}
	ScheduleComputations.Inc()
	if !res.Converged {
		ScheduleNonConverged.Inc()
	}
	ScheduleSkippedDependencies.Add(float64(len(res.SkippedDependencies)))
	ScheduleSweeps.WithLabelValues("forward").Observe(float64(res.ForwardSweeps))
	ScheduleSweeps.WithLabelValues("backward").Observe(float64(res.BackwardSweeps))
}
