// Package monitoring provides Prometheus metrics for the HTTP surface
// and the AI gateway.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metric collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	AICalls    *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spicesync",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spicesync",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "spicesync",
				Name:      "ai_calls_total",
				Help:      "AI gateway calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "spicesync",
				Name:      "ai_call_duration_seconds",
				Help:      "AI gateway call latency by operation",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(m.HTTPRequests, m.HTTPDuration, m.AICalls, m.AIDuration)
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAICall records one AI gateway call.
func (m *Metrics) ObserveAICall(operation, outcome string, elapsed time.Duration) {
	m.AICalls.WithLabelValues(operation, outcome).Inc()
	m.AIDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
