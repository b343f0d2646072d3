// Package metrics holds the prometheus collectors of the API. Everything is
// registered on the default registry and served by promhttp on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finance_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_auth_events_total",
			Help: "Auth operations by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	refreshReuse = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finance_refresh_token_reuse_total",
			Help: "Revoked refresh tokens presented again",
		},
	)

	cleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finance_cleanup_deleted_total",
			Help: "Rows deleted by the cleanup job",
		},
		[]string{"table"},
	)
)

// ObserveRequest records one finished HTTP request. route must be the route
// pattern, not the raw path, to keep the label set bounded.
func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}

	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// AuthEvent counts an auth operation. outcome is "ok" or the failure kind.
func AuthEvent(event, outcome string) {
	authEvents.WithLabelValues(event, outcome).Inc()
}

func RefreshReuse() {
	refreshReuse.Inc()
}

func CleanupDeleted(table string, n int64) {
	if n > 0 {
		cleanupDeleted.WithLabelValues(table).Add(float64(n))
	}
}
