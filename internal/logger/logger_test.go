package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"stock-analyzer/internal/trace"
)

// captureLogs routes the global logger into a buffer for one test.
func captureLogs(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLogger, prevDetailed := globalLogger, detailedLogging
	globalLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	detailedLogging = detailed
	t.Cleanup(func() {
		globalLogger, detailedLogging = prevLogger, prevDetailed
	})
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warn":    slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestDebugGatedByDetailedLogging(t *testing.T) {
	buf := captureLogs(t, false)
	Debug(context.Background(), "hidden")
	DebugSkip(context.Background(), 0, "hidden too")
	assert.Empty(t, buf.String())

	buf = captureLogs(t, true)
	Debug(context.Background(), "shown", "k", 1)
	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
	assert.Contains(t, entries[0], "source")
}

func TestDecisionCarriesTraceIDs(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })
	buf := captureLogs(t, false)

	ctx, span := trace.StartSpan(context.Background(), "test.Decision")
	Decision(ctx, "ACME", "BUY", 55, "Near support level", "confidence", "MEDIUM")
	span.End()

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Buy opportunity evaluated", e["msg"])
	assert.Equal(t, "DECISION", e["type"])
	assert.Equal(t, "ACME", e["ticker"])
	assert.Equal(t, "MEDIUM", e["confidence"])
	assert.Equal(t, span.SpanContext().TraceID().String(), e["trace_id"])

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "buy_decision", spans[0].Events[0].Name)
}

func TestOperationTimerEndWithError(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })
	buf := captureLogs(t, false)

	timer := StartOperation(context.Background(), "test.Op", "ticker", "ACME", "count", 3)
	timer.EndWithError(errors.New("boom"))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "test.Op", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("ticker", "ACME"))
	assert.Contains(t, spans[0].Attributes, attribute.Int("count", 3))

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "Operation failed", entries[0]["msg"])
	assert.Equal(t, "boom", entries[0]["error"])
}

func TestSpanAttrsSkipsUnsupported(t *testing.T) {
	attrs := spanAttrs([]any{"a", "x", "b", 2, "c", 1.5, "d", true, "e", []int{1}, 7, "orphan", "tail"})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("a", "x"),
		attribute.Int("b", 2),
		attribute.Float64("c", 1.5),
		attribute.Bool("d", true),
	}, attrs)
}
