// Package metrics provides the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpRequestsTotal counts served requests by route pattern and status code.
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// goalTransitionsTotal counts committed status changes requested by users.
	goalTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_transitions_total",
			Help: "Total number of committed goal status transitions",
		},
		[]string{"from", "to"},
	)

	// goalPropagationsTotal counts goals changed as a side effect of a transition.
	// Labels:
	//   - effect: "reopened", "activated" or "completed"
	goalPropagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goal_propagations_total",
			Help: "Total number of goals changed by status propagation",
		},
		[]string{"effect"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(goalTransitionsTotal)
	prometheus.MustRegister(goalPropagationsTotal)
	prometheus.MustRegister(rateLimitedTotal)
}

func RecordRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordTransition(from, to string) {
	goalTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordPropagation adds count goals changed with the given effect.
func RecordPropagation(effect string, count int) {
	if count <= 0 {
		return
	}
	goalPropagationsTotal.WithLabelValues(effect).Add(float64(count))
}

func RecordRateLimited(route string) {
	rateLimitedTotal.WithLabelValues(route).Inc()
}
