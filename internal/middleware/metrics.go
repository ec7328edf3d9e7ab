package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	BackendRequestTotal        = "backend_requests_total"
	BackendDurationSeconds     = "backend_request_duration_seconds"
)

// Metrics holds the console's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"method", "route", "status_code"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"method", "route"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BackendRequestTotal,
			Help: "Count of calls to the rewards backend",
		}, []string{"method", "status_code"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: BackendDurationSeconds,
			Help: "Duration of calls to the rewards backend",
		}, []string{"method"}),
	}
	m.registry.MustRegister(m.requests, m.durations, m.backendRequests, m.backendDuration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBackend records one backend call; status 0 means a transport error.
func (m *Metrics) ObserveBackend(method string, status int, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

type routeKey struct{}

// route collects the pattern matched by the innermost mux.
type route struct {
	pattern string
}

// Pattern wraps a nested mux so Instrument can label requests with the
// pattern that mux matched rather than the outer catch-all.
func Pattern(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if rt, ok := r.Context().Value(routeKey{}).(*route); ok && rt.pattern == "" {
			rt.pattern = r.Pattern
		}
	})
}

// Instrument counts requests by matched route pattern and status.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		rt := &route{}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, rt))

		next.ServeHTTP(rec, r)

		label := rt.pattern
		if label == "" {
			label = r.Pattern
		}
		if label == "" {
			label = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, label, strconv.Itoa(rec.status)).Inc()
		m.durations.WithLabelValues(r.Method, label).Observe(time.Since(start).Seconds())
	})
}
