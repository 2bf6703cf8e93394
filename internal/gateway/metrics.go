// internal/gateway/metrics.go
package gateway

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus metrics.
type Metrics struct {
	RequestsTotal        *prometheus.CounterVec
	ClassificationsTotal *prometheus.CounterVec
	FailOpensTotal       prometheus.Counter
	LimiterLatency       prometheus.Histogram
	registry             *prometheus.Registry
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics creates and registers all gateway metrics (singleton so tests
// constructing multiple gateways don't trip duplicate registration).
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		registry := prometheus.NewRegistry()

		m := &Metrics{
			RequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fmredge_requests_total",
					Help: "Gatewayed requests by terminal outcome",
				},
				[]string{"outcome"},
			),
			ClassificationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fmredge_classifications_total",
					Help: "Caller classifications",
				},
				[]string{"class"},
			),
			FailOpensTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "fmredge_fail_opens_total",
					Help: "Requests admitted because the gateway failed open",
				},
			),
			LimiterLatency: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "fmredge_limiter_duration_seconds",
					Help:    "Counter store round-trip latency",
					Buckets: prometheus.DefBuckets,
				},
			),
			registry: registry,
		}

		registry.MustRegister(m.RequestsTotal)
		registry.MustRegister(m.ClassificationsTotal)
		registry.MustRegister(m.FailOpensTotal)
		registry.MustRegister(m.LimiterLatency)

		metricsInstance = m
	})

	return metricsInstance
}

// Outcome labels for RequestsTotal.
const (
	OutcomeAdmitted = "admitted"
	OutcomeRejected = "rejected"
	OutcomeBypassed = "bypassed"
	OutcomeFailOpen = "fail_open"
)

// Handler returns the Prometheus scrape handler for the gateway registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
