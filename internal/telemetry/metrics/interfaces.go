// Package metrics is the instrumentation abstraction screening, alerting,
// and propagation code report through: a Provider interface with a
// Prometheus-backed implementation and a no-op fallback for tests.
package metrics

import "context"

// Counter represents a monotonically increasing value.
type Counter interface {
	Inc(delta float64, labels ...string)
}

// Gauge represents a value that can go up or down.
type Gauge interface {
	Set(value float64, labels ...string)
	Add(delta float64, labels ...string)
}

// Histogram records observations into buckets and tracks count + sum.
type Histogram interface {
	Observe(value float64, labels ...string)
}

// Timer is a helper handle for measuring latency.
type Timer interface {
	// ObserveDuration records the time elapsed since the timer was created.
	ObserveDuration(labels ...string)
}

// Provider is the top-level metrics provider abstraction.
type Provider interface {
	NewCounter(opts CounterOpts) Counter
	NewGauge(opts GaugeOpts) Gauge
	NewHistogram(opts HistogramOpts) Histogram
	NewTimer(h HistogramOpts) func() Timer
	// Health returns an error if the provider is degraded (e.g. a metric
	// failed to register).
	Health(ctx context.Context) error
}

// CommonOpts are embedded into each metric's option struct.
type CommonOpts struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	Labels    []string
}

// CounterOpts options for counters.
type CounterOpts struct{ CommonOpts }

// GaugeOpts options for gauges.
type GaugeOpts struct{ CommonOpts }

// HistogramOpts options for histograms and timers.
type HistogramOpts struct {
	CommonOpts
	Buckets []float64
}

type noopProvider struct{}
type noopCounter struct{}
type noopGauge struct{}
type noopHistogram struct{}
type noopTimer struct{}

// NewNoopProvider returns a provider that records nothing, for tests and
// for sentinelctl invocations that don't want a /metrics endpoint.
func NewNoopProvider() Provider { return &noopProvider{} }

func (p *noopProvider) NewCounter(opts CounterOpts) Counter       { return noopCounter{} }
func (p *noopProvider) NewGauge(opts GaugeOpts) Gauge             { return noopGauge{} }
func (p *noopProvider) NewHistogram(opts HistogramOpts) Histogram { return noopHistogram{} }
func (p *noopProvider) NewTimer(h HistogramOpts) func() Timer {
	return func() Timer { return noopTimer{} }
}
func (p *noopProvider) Health(ctx context.Context) error { return nil }

func (noopCounter) Inc(delta float64, labels ...string)       {}
func (noopGauge) Set(value float64, labels ...string)         {}
func (noopGauge) Add(delta float64, labels ...string)         {}
func (noopHistogram) Observe(value float64, labels ...string) {}
func (noopTimer) ObserveDuration(labels ...string)             {}
