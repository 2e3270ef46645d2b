package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

func testPipeline(t *testing.T) *pipeline {
	t.Helper()
	cfg := store.Default()
	cfg.EnhancedDCF.Seed = 7
	cfg.EnhancedDCF.Simulations = 200
	cfg.EnhancedDCF.Workers = 2

	p, err := newPipeline(context.Background(), cfg)
	require.NoError(t, err)

	src := marketdata.NewSynthetic(7)
	src.End = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	p.source = src
	p.now = func() time.Time { return time.Date(2024, 7, 1, 16, 0, 0, 0, time.UTC) }
	return p
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := loadSnapshot("testdata/acme_snapshot.json", "")
	require.NoError(t, err)
	assert.Equal(t, "ACME", snap.Ticker)
	assert.Len(t, snap.Financials.CashFlow["Free Cash Flow"], 4)

	snap, err = loadSnapshot("", "infy")
	require.NoError(t, err)
	assert.Equal(t, "INFY", snap.Ticker)
	assert.Equal(t, "INFY", snap.Info.Symbol)

	_, err = loadSnapshot("", "")
	assert.Error(t, err)
	_, err = loadSnapshot("testdata/missing.json", "X")
	assert.Error(t, err)
}

func TestRunWithSnapshot(t *testing.T) {
	snap, err := loadSnapshot("testdata/acme_snapshot.json", "")
	require.NoError(t, err)

	rep := testPipeline(t).run(context.Background(), snap)

	require.NotNil(t, rep.Valuation)
	assert.Equal(t, valuation.MethodDCF, rep.Valuation.Method)
	assert.Equal(t, valuation.TypeTraditionalDCF, rep.Valuation.ValuationType)

	require.NotNil(t, rep.MonteCarlo)
	assert.Positive(t, rep.MonteCarlo.Successful)

	require.Len(t, rep.Sensitivity, len(sweeps))
	for i, sr := range rep.Sensitivity {
		assert.Equal(t, sweeps[i].param, sr.Param)
		assert.NotEmpty(t, sr.Results, sr.Param)
	}
	require.NotNil(t, rep.SensitivityTable)
	assert.Len(t, rep.SensitivityTable.Values, gridPoints)
	assert.Equal(t, "5.0%", rep.SensitivityTable.RowLabels()[0])
	assert.Equal(t, "16.0%", rep.SensitivityTable.ColumnLabels()[gridPoints-1])

	require.Len(t, rep.Methods, 11)
	assert.Equal(t, valuation.MethodDCF, rep.Methods[0].Method)
	assert.Empty(t, rep.Methods[0].Error)
	assert.Equal(t, rep.Valuation.FairValue, rep.Methods[0].FairValue)

	require.NotNil(t, rep.Technical)
	require.NotNil(t, rep.Risk)

	require.Len(t, rep.Options, 2)
	assert.Equal(t, "2024-07-25", rep.Options[0].Expiration)

	require.NotNil(t, rep.Opportunity)
	assert.Equal(t, "ACME", rep.Opportunity.Ticker)
	assert.Equal(t, 1500.0, rep.Opportunity.CurrentPrice)
	assert.Contains(t, rep.Opportunity.Signals, "Positive sentiment")
	assert.Empty(t, rep.Errors)
}

func TestRunBareSymbol(t *testing.T) {
	snap, err := loadSnapshot("", "INFY")
	require.NoError(t, err)

	rep := testPipeline(t).run(context.Background(), snap)

	assert.Nil(t, rep.Valuation)
	assert.Nil(t, rep.MonteCarlo)
	assert.Contains(t, rep.Errors, stageValuation)
	assert.Contains(t, rep.Errors, stageMonteCarlo)
	assert.Empty(t, rep.Sensitivity)
	assert.Nil(t, rep.SensitivityTable)
	assert.Len(t, rep.Methods, 11)

	require.NotNil(t, rep.Technical)
	require.NotNil(t, rep.Opportunity)
	assert.Positive(t, rep.Opportunity.CurrentPrice)
	assert.Empty(t, rep.Options)
}

func TestRunAggregatesMentions(t *testing.T) {
	snap, err := loadSnapshot("", "INFY")
	require.NoError(t, err)
	snap.Mentions = []types.Mention{
		{Title: "Record order book", Label: "positive"},
		{Title: "Guidance raised", Label: "bullish"},
		{Title: "Analyst meet", Label: "neutral"},
	}

	rep := testPipeline(t).run(context.Background(), snap)
	require.NotNil(t, rep.Opportunity)
	assert.Equal(t, 70.0, rep.Opportunity.Scores.Sentiment)
	assert.Contains(t, rep.Opportunity.Signals, "Positive sentiment")
}
