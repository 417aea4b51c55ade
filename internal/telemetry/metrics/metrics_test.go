package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusProviderCountsAndExposesHandler(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})

	counter := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{
		Namespace: "sentinelspace",
		Subsystem: "screener",
		Name:      "conjunctions_found_total",
		Help:      "conjunctions found",
		Labels:    []string{"asset"},
	}})
	counter.Inc(3, "iss-zarya")
	counter.Inc(1, "iss-zarya")

	require.NoError(t, p.Health(context.Background()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	p.MetricsHandler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "sentinelspace_screener_conjunctions_found_total")
}

func TestPrometheusProviderReusesRegisteredMetric(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	opts := GaugeOpts{CommonOpts: CommonOpts{Name: "queue_depth", Labels: []string{"worker"}}}

	g1 := p.NewGauge(opts)
	g2 := p.NewGauge(opts)
	g1.Set(4, "w1")
	g2.Add(1, "w1")

	assert.NotNil(t, g1)
	assert.NotNil(t, g2)
}

func TestPrometheusProviderRejectsInvalidMetricName(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Name: "has spaces"}})
	assert.NotPanics(t, func() { c.Inc(1) })
}

func TestPrometheusProviderCardinalityWarning(t *testing.T) {
	reg := prom.NewRegistry()
	p := NewPrometheusProvider(PrometheusProviderOptions{Registry: reg, CardinalityLimit: 2})
	counter := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Name: "events", Labels: []string{"id"}}})

	counter.Inc(1, "a")
	counter.Inc(1, "b")
	counter.Inc(1, "c")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	p.MetricsHandler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "cardinality_exceeded_total")
}

func TestHistogramAndTimerObserveDuration(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	newTimer := p.NewTimer(HistogramOpts{CommonOpts: CommonOpts{Name: "screen_duration_seconds"}})
	timer := newTimer()
	timer.ObserveDuration()
}

func TestNoopProviderDoesNothing(t *testing.T) {
	p := NewNoopProvider()
	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Name: "x"}})
	g := p.NewGauge(GaugeOpts{CommonOpts: CommonOpts{Name: "y"}})
	h := p.NewHistogram(HistogramOpts{CommonOpts: CommonOpts{Name: "z"}})
	newTimer := p.NewTimer(HistogramOpts{CommonOpts: CommonOpts{Name: "w"}})

	c.Inc(1)
	g.Set(1)
	h.Observe(1)
	newTimer().ObserveDuration()

	assert.NoError(t, p.Health(context.Background()))
}

func TestOTelProviderRecordsWithoutError(t *testing.T) {
	p := NewOTelProvider(OTelProviderOptions{ServiceName: "sentinelspace"})

	counter := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Namespace: "sentinelspace", Name: "jobs_submitted", Labels: []string{"status"}}})
	counter.Inc(1, "ok")

	gauge := p.NewGauge(GaugeOpts{CommonOpts: CommonOpts{Name: "queue_depth"}})
	gauge.Set(5)
	gauge.Set(7)

	hist := p.NewHistogram(HistogramOpts{CommonOpts: CommonOpts{Name: "duration"}})
	hist.Observe(0.25)

	require.NoError(t, p.Health(context.Background()))
}

func TestBuildOTelName(t *testing.T) {
	assert.Equal(t, "sentinelspace.screener.found", buildOTelName(CommonOpts{Namespace: "sentinelspace", Subsystem: "screener", Name: "found"}))
	assert.Equal(t, "sentinelspace.found", buildOTelName(CommonOpts{Namespace: "sentinelspace", Name: "found"}))
	assert.Equal(t, "found", buildOTelName(CommonOpts{Name: "found"}))
}
