// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultEmpty   = "empty"
)

// Guard denial reasons.
const (
	DenyUnauthenticated = "unauthenticated"
	DenyRole            = "role"
)

// Options configures metric registration.
type Options struct {
	// Registry receives the collectors. Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
	// Namespace prefixes every metric name. Defaults to "aula".
	Namespace string
	// Buckets for backend latency. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// Metrics holds the gateway collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	forcedLogouts   prometheus.Counter
	courseSources   *prometheus.CounterVec
	guardDenials    *prometheus.CounterVec
}

// New registers the gateway collectors.
func New(opts Options) *Metrics {
	if opts.Registry == nil {
		opts.Registry = prometheus.DefaultRegisterer
	}
	if opts.Namespace == "" {
		opts.Namespace = "aula"
	}
	if len(opts.Buckets) == 0 {
		opts.Buckets = prometheus.DefBuckets
	}
	factory := promauto.With(opts.Registry)

	return &Metrics{
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests sent to the school backend by status code and method",
		}, []string{"code", "method"}),

		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the school backend",
			Buckets:   opts.Buckets,
		}, []string{"code", "method"}),

		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),

		forcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "auth",
			Name:      "forced_logouts_total",
			Help:      "Sessions cleared because the backend rejected the token",
		}),

		courseSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "courses",
			Name:      "instructor_source_total",
			Help:      "Instructor course lookups by endpoint and result",
		}, []string{"source", "result"}),

		guardDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Subsystem: "guard",
			Name:      "denials_total",
			Help:      "Route guard redirects by reason",
		}, []string{"reason"}),
	}
}

// InstrumentTransport wraps next so every backend round trip is counted and timed.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.backendRequests,
		promhttp.InstrumentRoundTripperDuration(m.backendDuration, next))
}

// ObserveLogin counts a login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// ObserveForcedLogout counts a session cleared after a 401.
func (m *Metrics) ObserveForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}

// ObserveCourseSource counts one step of the instructor course lookup chain.
func (m *Metrics) ObserveCourseSource(source, result string) {
	if m == nil {
		return
	}
	m.courseSources.WithLabelValues(source, result).Inc()
}

// ObserveGuardDenial counts a guard redirect.
func (m *Metrics) ObserveGuardDenial(reason string) {
	if m == nil {
		return
	}
	m.guardDenials.WithLabelValues(reason).Inc()
}

// Handler serves the collectors gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
