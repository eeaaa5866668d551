package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quest/cmd/internal/auth"
	"quest/cmd/internal/progress"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	authOps        *prometheus.CounterVec
	sessionsOpened prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	progressTotal  *prometheus.CounterVec
}

var (
	_ auth.Observer     = (*Metrics)(nil)
	_ progress.Observer = (*Metrics)(nil)
	_ HTTPObserver      = (*Metrics)(nil)
)

// NewMetrics registers the service metrics. streamClients reports live stream
// subscribers and may be nil.
func NewMetrics(streamClients func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		authOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_auth_operations_total",
				Help: "Auth operations by operation and result",
			},
			[]string{"op", "result"},
		),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quest_sessions_opened_total",
			Help: "Sessions opened by signup or login",
		}),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_http_requests_total",
				Help: "HTTP requests by method and status class",
			},
			[]string{"method", "class"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quest_http_request_duration_seconds",
				Help:    "HTTP request latency by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		progressTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_progress_entries_total",
				Help: "Recorded progress entries by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.authOps, m.sessionsOpened, m.httpRequests, m.httpDuration, m.progressTotal)

	if streamClients != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "quest_stream_clients",
				Help: "Connected progress stream clients",
			},
			func() float64 { return float64(streamClients()) },
		))
	}

	return m
}

// AuthOperation implements auth.Observer.
func (m *Metrics) AuthOperation(op, result string) {
	m.authOps.WithLabelValues(op, result).Inc()
}

// SessionOpened implements auth.Observer.
func (m *Metrics) SessionOpened() {
	m.sessionsOpened.Inc()
}

// ProgressRecorded implements progress.Observer.
func (m *Metrics) ProgressRecorded(status string) {
	m.progressTotal.WithLabelValues(status).Inc()
}

// ObserveHTTP implements HTTPObserver.
func (m *Metrics) ObserveHTTP(method, class string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, class).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
