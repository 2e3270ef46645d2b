package valuationobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

type stubValuer struct {
	res      *valuation.Result
	err      error
	outcomes []valuation.Outcome
}

func (s stubValuer) CalculateValuation(context.Context, types.Financials, types.Info) (*valuation.Result, error) {
	return s.res, s.err
}

func (s stubValuer) Compare(context.Context, types.Financials, types.Info) []valuation.Outcome {
	return s.outcomes
}

func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })
	return exp
}

func TestWrapPassesThroughResult(t *testing.T) {
	exp := setupTracing(t)
	want := &valuation.Result{Method: valuation.MethodDCF, FairValue: 120, CurrentPrice: 100, Upside: 20}

	got, err := Wrap(stubValuer{res: want}).CalculateValuation(context.Background(), types.Financials{}, types.Info{Symbol: "ACME"})
	require.NoError(t, err)
	assert.Same(t, want, got)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "valuation.CalculateValuation", spans[0].Name)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "valuation_completed", spans[0].Events[0].Name)
}

func TestWrapRecordsError(t *testing.T) {
	exp := setupTracing(t)
	wantErr := types.Insufficient("Auto", "Unable to calculate valuation with available data")

	got, err := Wrap(stubValuer{err: wantErr}).CalculateValuation(context.Background(), types.Financials{}, types.Info{})
	assert.Nil(t, got)
	assert.Same(t, wantErr, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, wantErr.Error(), spans[0].Status.Description)
}

func TestWrapCompare(t *testing.T) {
	exp := setupTracing(t)
	outcomes := []valuation.Outcome{
		{Method: valuation.MethodNAV, Result: &valuation.Result{Method: valuation.MethodNAV, FairValue: 60}},
		{Method: valuation.MethodDDM, Err: types.Insufficient("DDM", "No dividend data available")},
	}

	ctx, parent := trace.StartSpan(context.Background(), "analyze")
	got := Wrap(stubValuer{outcomes: outcomes}).Compare(ctx, types.Financials{}, types.Info{Symbol: "ACME"})
	parent.End()
	assert.Equal(t, outcomes, got)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "valuation.Compare", spans[0].Name)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent.SpanID())
}
