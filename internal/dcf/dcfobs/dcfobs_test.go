package dcfobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

func baseParams() dcf.Params {
	return dcf.Params{
		BaseCashFlow:      1_000_000,
		GrowthRate:        0.10,
		WACC:              0.10,
		TerminalGrowth:    0.025,
		ProjectionYears:   5,
		SharesOutstanding: 1_000_000,
	}
}

func TestWrapSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })

	c := Wrap(dcf.NewCalculator())

	res, err := c.Detailed(context.Background(), baseParams())
	require.NoError(t, err)
	assert.Greater(t, res.FairValuePerShare, 0.0)

	bad := baseParams()
	bad.WACC = 0.02
	_, err = c.Detailed(context.Background(), bad)
	assert.ErrorIs(t, err, types.ErrInvalidParameter)

	mc, err := c.MonteCarlo(context.Background(), dcf.MonteCarloParams{
		BaseCashFlow:      1_000_000,
		GrowthRate:        dcf.Distribution{Mean: 0.1},
		WACC:              dcf.Distribution{Mean: 0.1},
		TerminalGrowth:    dcf.Distribution{Mean: 0.025},
		ProjectionYears:   5,
		SharesOutstanding: 1_000_000,
		Simulations:       50,
		Seed:              7,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, mc.Successful)

	sens, err := c.Sensitivity(context.Background(), baseParams(), dcf.ParamWACC, []float64{0.08, 0.10, 0.01})
	require.NoError(t, err)
	assert.Len(t, sens.Results, 2)

	table := c.TwoWay(context.Background(), baseParams(), []float64{0.05, 0.1}, []float64{0.09, 0.11})
	assert.Len(t, table.Values, 2)

	var names []string
	for _, s := range exp.GetSpans() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"dcf.Detailed", "dcf.Detailed", "dcf.MonteCarlo", "dcf.Sensitivity", "dcf.TwoWay"}, names)
}

func TestWrapJoinsCallerTrace(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })

	ctx, parent := trace.StartSpan(context.Background(), "analyze")
	c := Wrap(dcf.NewCalculator())

	_, err := c.Detailed(ctx, baseParams())
	require.NoError(t, err)
	_, err = c.Sensitivity(ctx, baseParams(), dcf.ParamGrowthRate, []float64{0.05, 0.08})
	require.NoError(t, err)
	c.TwoWay(ctx, baseParams(), []float64{0.05}, []float64{0.09})
	parent.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 4)
	for _, s := range spans[:3] {
		assert.Equal(t, parent.SpanContext().TraceID(), s.SpanContext.TraceID(), s.Name)
		assert.Equal(t, parent.SpanContext().SpanID(), s.Parent.SpanID(), s.Name)
	}
	assert.Equal(t, "analyze", spans[3].Name)
}
