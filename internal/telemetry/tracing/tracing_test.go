package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTracerStartsNestedSpans(t *testing.T) {
	tr := NewTracer(true)

	ctx, root := tr.StartSpan(context.Background(), "screen_asset")
	require.False(t, root.IsEnded())
	rootID, _ := ExtractIDs(ctx)
	require.NotEmpty(t, rootID)

	childCtx, child := tr.StartSpan(ctx, "propagate")
	childTraceID, childSpanID := ExtractIDs(childCtx)
	assert.Equal(t, rootID, childTraceID, "child span should inherit the trace ID")
	assert.NotEmpty(t, childSpanID)
	assert.Equal(t, root.Context().SpanID, child.Context().ParentSpanID)

	child.End()
	root.End()
	assert.True(t, child.IsEnded())
	assert.True(t, root.IsEnded())
}

func TestNoopTracerNeverRecords(t *testing.T) {
	tr := NewTracer(false)
	assert.True(t, tr.Noop())

	ctx, sp := tr.StartSpan(context.Background(), "op")
	traceID, spanID := ExtractIDs(ctx)
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
	assert.True(t, sp.IsEnded())
}

func TestAdaptiveTracerAlwaysRecordsWithinExistingTrace(t *testing.T) {
	tr := NewAdaptiveTracer(func() float64 { return 0 })
	assert.False(t, tr.Noop())

	root := NewTracer(true)
	ctx, _ := root.StartSpan(context.Background(), "parent")

	childCtx, child := tr.StartSpan(ctx, "child")
	traceID, _ := ExtractIDs(childCtx)
	assert.NotEmpty(t, traceID, "a span already inside a trace is always recorded")
	assert.False(t, child.IsEnded())
}

func TestExtractIDsOnEmptyContext(t *testing.T) {
	traceID, spanID := ExtractIDs(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}
