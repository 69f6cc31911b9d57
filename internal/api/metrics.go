package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the compile service.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	compilesTotal   *prometheus.CounterVec
	cacheHitsTotal  prometheus.Counter
	cacheEvents     *prometheus.CounterVec
}

// NewMetrics creates and registers the service collectors on a fresh
// registry, alongside the standard Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonspy_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bonspy_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		compilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonspy_compiles_total",
			Help: "Compile attempts by outcome.",
		}, []string{"outcome"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bonspy_compile_cache_hits_total",
			Help: "Compile requests served from cache.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonspy_cache_events_total",
			Help: "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "event"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.compilesTotal, m.cacheHitsTotal, m.cacheEvents)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveCompile records one compile attempt.
func (m *Metrics) ObserveCompile(outcome string, cacheHit bool) {
	m.compilesTotal.WithLabelValues(outcome).Inc()
	if cacheHit {
		m.cacheHitsTotal.Inc()
	}
}
