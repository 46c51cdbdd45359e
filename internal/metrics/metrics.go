// internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lease_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RenewalOutcomes counts auto-renewal sweep results per lease
	RenewalOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_auto_renewal_outcomes_total",
			Help: "Auto-renewal sweep outcomes by result",
		},
		[]string{"result"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lease_auto_renewal_sweep_duration_seconds",
			Help:    "Duration of auto-renewal sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lease_auto_renewal_last_run_timestamp_seconds",
			Help: "Unix time of the last completed auto-renewal sweep",
		},
	)

	LeaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_status_transitions_total",
			Help: "Lease lifecycle transitions by target status",
		},
		[]string{"status"},
	)
)

// Middleware observes every request. Paths use the route template to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func ObserveSweep(started time.Time, renewed, skipped, failed int) {
	RenewalOutcomes.WithLabelValues("renewed").Add(float64(renewed))
	RenewalOutcomes.WithLabelValues("skipped").Add(float64(skipped))
	RenewalOutcomes.WithLabelValues("failed").Add(float64(failed))
	SweepDuration.Observe(time.Since(started).Seconds())
	SweepLastRun.SetToCurrentTime()
}
