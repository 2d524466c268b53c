// Package metrics exposes Prometheus counters for the approval email
// workflow and the admin HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	EmailsSent          *prometheus.CounterVec
	DispatchFailures    *prometheus.CounterVec
	BookkeepingFailures *prometheus.CounterVec
	OpensRecorded       *prometheus.CounterVec
	SendLockContentions prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		EmailsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_emails_sent_total",
				Help: "Emails accepted by the dispatcher",
			},
			[]string{"type", "resend"},
		),
		DispatchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_email_dispatch_failures_total",
				Help: "Emails the dispatcher rejected or timed out on",
			},
			[]string{"type"},
		),
		BookkeepingFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_email_bookkeeping_failures_total",
				Help: "Post-dispatch writes that failed and were skipped",
			},
			[]string{"step"},
		),
		OpensRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_email_opens_total",
				Help: "Open-tracking beacon hits by outcome",
			},
			[]string{"type", "outcome"},
		),
		SendLockContentions: factory.NewCounter(prometheus.CounterOpts{
			Name: "admin_email_send_lock_contentions_total",
			Help: "Sends refused because another send for the same record was in flight",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
