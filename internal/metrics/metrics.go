// Package metrics provides Prometheus instrumentation for riskscan.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "riskscan"

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// BatchesTotal counts processed batches by outcome ("ok" or an error kind).
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total batches processed by outcome.",
		},
		[]string{"outcome"},
	)

	// BatchRecords observes the number of records per batch.
	BatchRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_records",
		Help:      "Records per submitted batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	// InFlightBatches tracks batches currently being processed.
	InFlightBatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inflight_batches",
		Help:      "Batches currently being processed.",
	})

	// RecordsScoredTotal counts records by assigned risk level.
	RecordsScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scored_total",
			Help:      "Total records scored by risk level.",
		},
		[]string{"risk_level"},
	)

	// FeaturesDefaultedTotal counts required features filled with 0.
	FeaturesDefaultedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_defaulted_total",
			Help:      "Required features missing from input and defaulted to 0.",
		},
		[]string{"feature"},
	)

	// FallbacksTotal counts non-fatal normalization fallbacks by kind.
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normalization_fallbacks_total",
			Help:      "Non-fatal normalization fallbacks (amount, timestamp, age, pruned).",
		},
		[]string{"kind"},
	)

	// ClassifierDuration observes classifier call latency.
	ClassifierDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classifier_duration_seconds",
		Help:      "Classifier batch call duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// ReportDeliveriesTotal counts report sink writes by sink and result.
	ReportDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_deliveries_total",
			Help:      "Report deliveries by sink and result.",
		},
		[]string{"sink", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		BatchesTotal,
		BatchRecords,
		InFlightBatches,
		RecordsScoredTotal,
		FeaturesDefaultedTotal,
		FallbacksTotal,
		ClassifierDuration,
		ReportDeliveriesTotal,
	)
}

// Middleware returns a Gin middleware that records HTTP request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // route pattern, not actual path
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
