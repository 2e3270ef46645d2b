package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDisabledTracing(t *testing.T) {
	require.NoError(t, Setup(false))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	_, _, ok := IDs(ctx)
	assert.False(t, ok)
}

func TestSetupWithExporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, SetupWithExporter(exp))
	t.Cleanup(func() { _ = Setup(false) })
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "unit.Work")
	traceID, spanID, ok := IDs(ctx)
	require.True(t, ok)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), spanID)
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unit.Work", spans[0].Name)
	assert.Equal(t, ServiceName, spanServiceName(spans[0]))

	require.NoError(t, Shutdown(context.Background()))
}

func spanServiceName(s tracetest.SpanStub) string {
	for _, kv := range s.Resource.Attributes() {
		if kv.Key == "service.name" {
			return kv.Value.AsString()
		}
	}
	return ""
}
