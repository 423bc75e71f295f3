package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/driftgate/gateway/internal/domain"
	"github.com/driftgate/gateway/internal/health"
)

func TestNew(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if r.reg == nil {
		t.Fatal("expected non-nil prometheus registry")
	}
	if r.AttemptsTotal == nil {
		t.Fatal("expected non-nil AttemptsTotal counter")
	}
	if r.AttemptLatencyMs == nil {
		t.Fatal("expected non-nil AttemptLatencyMs histogram")
	}
	if r.ProviderHealth == nil {
		t.Fatal("expected non-nil ProviderHealth gauge")
	}
	if r.RefreshRunsTotal == nil {
		t.Fatal("expected non-nil RefreshRunsTotal counter")
	}
}

func TestHandlerNonNil(t *testing.T) {
	r := New()
	h := r.Handler()
	if h == nil {
		t.Fatal("expected non-nil http.Handler from Handler()")
	}
}

func TestMetricsCanBeCollected(t *testing.T) {
	r := New()

	r.ObserveAttempt(domain.Groq, "llama-test", true, 150)
	r.ObserveAttempt(domain.Groq, "llama-test", false, 900)
	r.SetProviderHealth(domain.Groq, health.Degraded)
	r.ObserveRefreshRun(true)
	r.IncRateLimited()

	mfs, err := r.reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected at least one metric family after recording values")
	}

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}

	want := []string{
		"gateway_attempts_total",
		"gateway_attempt_latency_ms",
		"gateway_provider_health",
		"gateway_refresh_runs_total",
		"gateway_rate_limited_total",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("expected metric %q in gathered metrics", name)
		}
	}
}

func TestSetProviderHealthReflectsStatusScale(t *testing.T) {
	r := New()
	r.SetProviderHealth(domain.Groq, health.Available)
	r.SetProviderHealth(domain.DeepSeek, health.Degraded)
	r.SetProviderHealth(domain.Together, health.Unavailable)

	mfs, err := r.reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "gateway_provider_health" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "provider" {
					values[l.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	if values["groq"] != 2 || values["deepseek"] != 1 || values["together"] != 0 {
		t.Fatalf("unexpected gauge values: %+v", values)
	}
}

func TestMultipleRegistriesAreIndependent(t *testing.T) {
	r1 := New()
	r2 := New()

	r1.ObserveAttempt(domain.Groq, "llama-test", true, 100)

	mfs, err := r2.reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil && m.GetCounter().GetValue() > 0 {
				t.Error("r2 should not have any non-zero counters")
			}
		}
	}
}

func TestRegisteredMetricDescriptions(t *testing.T) {
	r := New()

	ch := make(chan *prometheus.Desc, 10)
	go func() {
		r.AttemptsTotal.Describe(ch)
		r.AttemptLatencyMs.Describe(ch)
		r.ProviderHealth.Describe(ch)
		close(ch)
	}()

	count := 0
	for range ch {
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 metric descriptors, got %d", count)
	}
}
