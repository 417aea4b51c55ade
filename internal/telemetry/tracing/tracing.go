// Package tracing is a minimal, dependency-free span tracer: enough to
// correlate a log line with the screening run that produced it, without
// pulling in a full OTel SDK pipeline for internal spans.
package tracing

import (
	"context"
	randcrypto "crypto/rand"
	"encoding/hex"
	"math/rand"
	"sync"
	"time"
)

// Span is one traced operation.
type Span interface {
	End()
	SetAttribute(key string, value any)
	Context() SpanContext
	IsEnded() bool
}

// SpanContext identifies a span within a trace.
type SpanContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Start        time.Time
	End          time.Time
}

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	Noop() bool
}

type noopTracer struct{}
type noopSpan struct{}

func (noopTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, noopSpan{}
}
func (noopTracer) Noop() bool                            { return true }
func (noopSpan) End()                                     {}
func (noopSpan) SetAttribute(key string, value any)       {}
func (noopSpan) Context() SpanContext                     { return SpanContext{} }
func (noopSpan) IsEnded() bool                            { return true }

// simpleTracer starts a span on every call.
type simpleTracer struct{ enabled bool }

// adaptiveTracer samples a percentage of untraced requests, determined at
// call time by policyFn (e.g. a config-driven sample rate). A call that is
// already part of a trace is always recorded, regardless of the policy.
type adaptiveTracer struct{ policyFn func() float64 }

type simpleSpan struct {
	ctx   SpanContext
	mu    sync.Mutex
	ended bool
	attrs map[string]any
}

// NewTracer returns a always-on tracer, or a no-op tracer if enabled is
// false.
func NewTracer(enabled bool) Tracer {
	if !enabled {
		return noopTracer{}
	}
	return simpleTracer{enabled: true}
}

// NewAdaptiveTracer returns a tracer that samples new traces at the
// percentage percentFn returns (0-100), called once per root span.
func NewAdaptiveTracer(percentFn func() float64) Tracer {
	if percentFn == nil {
		return noopTracer{}
	}
	return &adaptiveTracer{policyFn: percentFn}
}

func (t simpleTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	parent := SpanFromContext(ctx)
	traceID := parent.ctx.TraceID
	if traceID == "" {
		traceID = newID(16)
	}
	sp := &simpleSpan{
		ctx: SpanContext{
			TraceID:      traceID,
			SpanID:       newID(8),
			ParentSpanID: parent.ctx.SpanID,
			Start:        time.Now(),
		},
		attrs: make(map[string]any),
	}
	return context.WithValue(ctx, spanKey{}, sp), sp
}

func (t simpleTracer) Noop() bool { return !t.enabled }

func (a *adaptiveTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	parent := SpanFromContext(ctx)
	traceID := parent.ctx.TraceID
	if traceID == "" {
		pct := a.policyFn()
		if pct <= 0 || rand.Float64()*100 > pct {
			return ctx, noopSpan{}
		}
		traceID = newID(16)
	}
	sp := &simpleSpan{
		ctx: SpanContext{
			TraceID:      traceID,
			SpanID:       newID(8),
			ParentSpanID: parent.ctx.SpanID,
			Start:        time.Now(),
		},
		attrs: make(map[string]any),
	}
	return context.WithValue(ctx, spanKey{}, sp), sp
}

func (a *adaptiveTracer) Noop() bool { return false }

func (s *simpleSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.ctx.End = time.Now()
		s.ended = true
	}
}

func (s *simpleSpan) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attrs != nil {
		s.attrs[key] = value
	}
}

func (s *simpleSpan) Context() SpanContext { return s.ctx }

func (s *simpleSpan) IsEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

type spanKey struct{}

// SpanFromContext returns the active span, or a zero-value span if none is
// set.
func SpanFromContext(ctx context.Context) *simpleSpan {
	if ctx == nil {
		return &simpleSpan{}
	}
	if sp, ok := ctx.Value(spanKey{}).(*simpleSpan); ok {
		return sp
	}
	return &simpleSpan{}
}

// ExtractIDs returns the trace and span ID of the active span, or empty
// strings if there is none.
func ExtractIDs(ctx context.Context) (traceID, spanID string) {
	sp := SpanFromContext(ctx)
	return sp.ctx.TraceID, sp.ctx.SpanID
}

func newID(n int) string {
	b := make([]byte, n)
	_, _ = randcrypto.Read(b)
	return hex.EncodeToString(b)
}
