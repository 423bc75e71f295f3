// Package metrics is the Prometheus registry described in SPEC_FULL.md
// §4.11: per-attempt outcome counters, a provider health gauge, an attempt
// latency histogram, and a refresh-run counter, exposed at GET /metrics.
// Grounded on the teacher's internal/metrics/metrics.go — same
// prometheus.Registry-per-process shape and promhttp.HandlerFor exposure —
// with the label set replaced to match this gateway's own attempt/provider
// domain instead of tokenhub's mode/model/provider/status request metric.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/health"
)

// Registry owns every metric this process exposes.
type Registry struct {
	reg *prometheus.Registry

	AttemptsTotal    *prometheus.CounterVec
	AttemptLatencyMs *prometheus.HistogramVec
	ProviderHealth   *prometheus.GaugeVec
	RefreshRunsTotal *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter
}

// New builds a Registry with every metric registered and zeroed.
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		AttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_attempts_total",
			Help: "Total upstream provider attempts, by provider, model and outcome",
		}, []string{"provider", "model", "outcome"}),
		AttemptLatencyMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_attempt_latency_ms",
			Help:    "Upstream attempt latency in milliseconds, by provider",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		}, []string{"provider"}),
		ProviderHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_provider_health",
			Help: "Provider health status (2=Available, 1=Degraded, 0=Unavailable)",
		}, []string{"provider"}),
		RefreshRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_refresh_runs_total",
			Help: "Total model-catalog refresh runs, by outcome",
		}, []string{"outcome"}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
	reg.MustRegister(m.AttemptsTotal, m.AttemptLatencyMs, m.ProviderHealth, m.RefreshRunsTotal, m.RateLimitedTotal)
	return m
}

// Handler exposes the registry in the Prometheus text exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ObserveAttempt records one completed upstream attempt.
func (m *Registry) ObserveAttempt(provider domain.Provider, model string, success bool, latencyMs int64) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.AttemptsTotal.WithLabelValues(string(provider), model, outcome).Inc()
	m.AttemptLatencyMs.WithLabelValues(string(provider)).Observe(float64(latencyMs))
}

// healthValue maps a health.Status onto the gauge's documented scale.
func healthValue(s health.Status) float64 {
	switch s {
	case health.Available:
		return 2
	case health.Degraded:
		return 1
	default:
		return 0
	}
}

// SetProviderHealth updates the gauge for provider to reflect status.
func (m *Registry) SetProviderHealth(provider domain.Provider, status health.Status) {
	m.ProviderHealth.WithLabelValues(string(provider)).Set(healthValue(status))
}

// ObserveRefreshRun records the completion of one refresh invocation.
func (m *Registry) ObserveRefreshRun(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.RefreshRunsTotal.WithLabelValues(outcome).Inc()
}

// IncRateLimited records one request rejected by the rate limiter.
func (m *Registry) IncRateLimited() {
	m.RateLimitedTotal.Inc()
}
