package technicalobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

func TestWrapAnalyze(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })

	a := Wrap(technical.NewAnalyzer(technical.DefaultConfig()))

	_, err := a.Analyze(context.Background(), make([]types.Bar, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInsufficientData)

	bars := make([]types.Bar, 25)
	for i := range bars {
		p := 100 + float64(i)
		bars[i] = types.Bar{Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 1000}
	}
	res, err := a.Analyze(context.Background(), bars)
	require.NoError(t, err)
	assert.Equal(t, technical.TrendInsufficientData, res.Trend)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, "technical.Analyze", s.Name)
	}
}
