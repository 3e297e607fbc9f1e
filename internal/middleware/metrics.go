package middleware

import (
	"net/http"
	"strconv"
	"time"

	"channel-viewer/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// RecordHealth also counts liveness and readiness checks
	RecordHealth bool
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{}
}

// Metrics returns a middleware that records Prometheus metrics. Requests
// are labeled by route, never by raw path.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rt := classify(r.URL.Path)
			if rt.kind == routeMetrics || (rt.kind == routeHealth && !config.RecordHealth) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, rt.label, strconv.Itoa(rec.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, rt.label).Observe(time.Since(start).Seconds())
		})
	}
}
