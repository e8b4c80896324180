package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's prometheus collectors.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	rateLimitRejects *prometheus.CounterVec
	auditBacklog     prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bellaprep_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bellaprep_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		rateLimitRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bellaprep_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"path"}),
		auditBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bellaprep_audit_archive_backlog",
			Help: "Audit entries past the retention cutoff awaiting cold storage.",
		}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.rateLimitRejects, m.auditBacklog)
	return m
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// RateLimitRejected counts a rejected request.
func (m *Metrics) RateLimitRejected(path string) {
	m.rateLimitRejects.WithLabelValues(path).Inc()
}

// SetAuditBacklog records the daily archive accounting result.
func (m *Metrics) SetAuditBacklog(count int64) {
	m.auditBacklog.Set(float64(count))
}
