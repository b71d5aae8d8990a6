// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "energywise"

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	storeCommits      *prometheus.CounterVec
	tipFallbacks      *prometheus.CounterVec
	tipRequests       *prometheus.CounterVec
	integrationStatus *prometheus.GaugeVec
}

// NewMetrics creates the collectors on a fresh registry along with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		storeCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_commits_total",
			Help:      "Store actions dispatched by action and result.",
		}, []string{"action", "result"}),
		tipFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tip_fallbacks_total",
			Help:      "Times the static tips were served instead of generated ones, by reason.",
		}, []string{"reason"}),
		tipRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tip_requests_total",
			Help:      "Personalized tip requests by source (cache, generated, fallback).",
		}, []string{"source"}),
		integrationStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "integration_connected",
			Help:      "1 if the integration is connected, 0 otherwise.",
		}, []string{"integration"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.storeCommits,
		m.tipFallbacks,
		m.tipRequests,
		m.integrationStatus,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// WrapHandler records the request count and latency of next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StoreCommit records a dispatched store action.
func (m *Metrics) StoreCommit(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeCommits.WithLabelValues(action, result).Inc()
}

// TipFallback records that the static tips were served.
func (m *Metrics) TipFallback(reason string) {
	if m == nil {
		return
	}
	m.tipFallbacks.WithLabelValues(reason).Inc()
	m.tipRequests.WithLabelValues("fallback").Inc()
}

// TipServed records tips served from the cache or freshly generated.
func (m *Metrics) TipServed(cached bool) {
	if m == nil {
		return
	}
	source := "generated"
	if cached {
		source = "cache"
	}
	m.tipRequests.WithLabelValues(source).Inc()
}

// SetIntegrationConnected updates the connection gauge of an integration.
func (m *Metrics) SetIntegrationConnected(id string, connected bool) {
	if m == nil {
		return
	}
	v := 0.0
	if connected {
		v = 1
	}
	m.integrationStatus.WithLabelValues(id).Set(v)
}
