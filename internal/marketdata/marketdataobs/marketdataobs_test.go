package marketdataobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/trace"
)

func TestWrapHistory(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	require.NoError(t, trace.SetupWithExporter(exp))
	t.Cleanup(func() { _ = trace.Setup(false) })

	syn := marketdata.NewSynthetic(3)
	syn.End = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	src := Wrap(syn)

	bars, err := src.History(context.Background(), "HDFCBANK", 15)
	require.NoError(t, err)
	assert.Len(t, bars, 15)

	_, err = src.History(context.Background(), "HDFCBANK", -1)
	require.Error(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "marketdata.History", spans[0].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
