package dcf

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/types"
)

func baseParams() Params {
	return Params{
		BaseCashFlow:      1_000_000,
		GrowthRate:        0.10,
		WACC:              0.10,
		TerminalGrowth:    0.025,
		ProjectionYears:   5,
		SharesOutstanding: 1_000_000,
	}
}

func TestDetailed(t *testing.T) {
	res, err := NewCalculator().Detailed(context.Background(), baseParams())
	require.NoError(t, err)
	require.Len(t, res.Projected, 5)

	assert.InDelta(t, 1_100_000.0, res.Projected[0].CashFlow, 1e-6)
	assert.InDelta(t, 1_000_000*math.Pow(1.1, 5), res.Projected[4].CashFlow, 1e-6)
	assert.InDelta(t, 1_610_510.0, res.Projected[4].CashFlow, 1e-3)
	assert.InDelta(t, res.Projected[0].CashFlow/1.1, res.Projected[0].PresentValue, 1e-6)

	tv := 1_000_000 * math.Pow(1.1, 5) * 1.025 / 0.075
	assert.InDelta(t, tv, res.TerminalValue, 1e-3)
	assert.InDelta(t, tv/math.Pow(1.1, 5), res.PVTerminal, 1e-3)
	assert.InDelta(t, res.PVProjected+res.PVTerminal, res.EnterpriseValue, 1e-6)
	assert.Greater(t, res.FairValuePerShare, 0.0)
	assert.Equal(t, baseParams(), res.Inputs)
}

func TestDetailedNetsCashAndDebt(t *testing.T) {
	p := baseParams()
	p.Cash, p.Debt = 3e6, 1e6

	res, err := NewCalculator().Detailed(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, res.EnterpriseValue+2e6, res.EquityValue, 1e-6)
	assert.InDelta(t, res.EquityValue/1e6, res.FairValuePerShare, 1e-9)
}

func TestDetailedValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		msg    string
	}{
		{"no shares", func(p *Params) { p.SharesOutstanding = 0 }, "Shares outstanding must be positive"},
		{"zero wacc", func(p *Params) { p.WACC = 0 }, "WACC must be between 0% and 50%"},
		{"wacc too high", func(p *Params) { p.WACC = 0.6 }, "WACC must be between 0% and 50%"},
		{"wacc equals terminal", func(p *Params) { p.WACC, p.TerminalGrowth = 0.03, 0.03 }, "WACC must be greater than terminal growth rate"},
		{"wacc below terminal", func(p *Params) { p.WACC, p.TerminalGrowth = 0.02, 0.05 }, "WACC must be greater than terminal growth rate"},
		{"negative terminal", func(p *Params) { p.TerminalGrowth = -0.01 }, "Terminal growth must be between 0% and 10%"},
		{"terminal too high", func(p *Params) { p.WACC, p.TerminalGrowth = 0.3, 0.12 }, "Terminal growth must be between 0% and 10%"},
		{"zero cash flow", func(p *Params) { p.BaseCashFlow = 0 }, "Base cash flow cannot be zero"},
		{"growth too low", func(p *Params) { p.GrowthRate = -0.6 }, "Growth rate must be between -50% and 100%"},
		{"growth too high", func(p *Params) { p.GrowthRate = 1.5 }, "Growth rate must be between -50% and 100%"},
		{"no years", func(p *Params) { p.ProjectionYears = 0 }, "Projection years must be between 1 and 20"},
		{"too many years", func(p *Params) { p.ProjectionYears = 21 }, "Projection years must be between 1 and 20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			res, err := NewCalculator().Detailed(context.Background(), p)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.msg, err.Error())
			assert.ErrorIs(t, err, types.ErrInvalidParameter)
		})
	}
}

func TestDetailedMonotonicity(t *testing.T) {
	c := NewCalculator()
	fv := func(mutate func(p *Params)) float64 {
		p := baseParams()
		mutate(&p)
		res, err := c.Detailed(context.Background(), p)
		require.NoError(t, err)
		return res.FairValuePerShare
	}

	growths := []float64{-0.2, 0, 0.05, 0.1, 0.3}
	for i := 1; i < len(growths); i++ {
		lo := fv(func(p *Params) { p.GrowthRate = growths[i-1] })
		hi := fv(func(p *Params) { p.GrowthRate = growths[i] })
		assert.Greater(t, hi, lo, "growth %.2f", growths[i])
	}

	waccs := []float64{0.06, 0.08, 0.1, 0.15, 0.3}
	for i := 1; i < len(waccs); i++ {
		hi := fv(func(p *Params) { p.WACC = waccs[i-1] })
		lo := fv(func(p *Params) { p.WACC = waccs[i] })
		assert.Less(t, lo, hi, "wacc %.2f", waccs[i])
	}
}

func TestMonteCarloZeroSpreadMatchesPoint(t *testing.T) {
	c := NewCalculator()
	point, err := c.Detailed(context.Background(), baseParams())
	require.NoError(t, err)

	res, err := c.MonteCarlo(context.Background(), MonteCarloParams{
		BaseCashFlow:      1_000_000,
		GrowthRate:        Distribution{Mean: 0.10},
		WACC:              Distribution{Mean: 0.10},
		TerminalGrowth:    Distribution{Mean: 0.025},
		ProjectionYears:   5,
		SharesOutstanding: 1_000_000,
		Simulations:       200,
		Seed:              7,
		Workers:           3,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, res.Successful)
	assert.Len(t, res.FairValues, 200)
	assert.InDelta(t, 0.0, res.FairValue.Std, 1e-9)
	assert.InDelta(t, point.FairValuePerShare, res.FairValue.Mean, 1e-9)
	assert.InDelta(t, point.EnterpriseValue, res.EnterpriseValueMedian, 1e-3)
}

func mcParams(workers int) MonteCarloParams {
	return MonteCarloParams{
		BaseCashFlow:      5e6,
		GrowthRate:        Distribution{Mean: 0.08, StdDev: 0.02},
		WACC:              Distribution{Mean: 0.10, StdDev: 0.01},
		TerminalGrowth:    Distribution{Mean: 0.025, StdDev: 0.005},
		ProjectionYears:   5,
		SharesOutstanding: 1e6,
		Simulations:       2000,
		Seed:              42,
		Workers:           workers,
	}
}

func TestMonteCarloSeededRunsRepeat(t *testing.T) {
	c := NewCalculator()

	a, err := c.MonteCarlo(context.Background(), mcParams(4))
	require.NoError(t, err)
	b, err := c.MonteCarlo(context.Background(), mcParams(4))
	require.NoError(t, err)
	assert.Equal(t, a.FairValues, b.FairValues)

	seq, err := c.MonteCarlo(context.Background(), mcParams(1))
	require.NoError(t, err)
	assert.InEpsilon(t, seq.FairValue.Mean, a.FairValue.Mean, 0.05)
}

func TestMonteCarloAggregates(t *testing.T) {
	res, err := NewCalculator().MonteCarlo(context.Background(), mcParams(2))
	require.NoError(t, err)

	for i := 1; i < len(Percentiles); i++ {
		assert.LessOrEqual(t, res.Percentiles[Percentiles[i-1]], res.Percentiles[Percentiles[i]])
	}
	assert.Equal(t, res.Percentiles[50], res.FairValue.Median)
	assert.Equal(t, Interval{Low: res.Percentiles[25], High: res.Percentiles[75]}, res.ConfidenceIntervals["50%"])
	assert.Equal(t, Interval{Low: res.Percentiles[10], High: res.Percentiles[90]}, res.ConfidenceIntervals["80%"])
	assert.Equal(t, Interval{Low: res.Percentiles[5], High: res.Percentiles[95]}, res.ConfidenceIntervals["90%"])
	assert.LessOrEqual(t, res.FairValue.Min, res.Percentiles[5])
	assert.GreaterOrEqual(t, res.FairValue.Max, res.Percentiles[95])
}

func TestMonteCarloFailures(t *testing.T) {
	c := NewCalculator()

	p := mcParams(1)
	p.BaseCashFlow = 0
	_, err := c.MonteCarlo(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, "No valid simulations completed", err.Error())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.MonteCarlo(ctx, mcParams(2))
	assert.ErrorIs(t, err, types.ErrComputationFailure)

	for _, sims := range []int{0, -5} {
		p := mcParams(1)
		p.Simulations = sims
		p.Workers = 4
		res, err := c.MonteCarlo(context.Background(), p)
		require.Error(t, err, "simulations %d", sims)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, types.ErrInvalidParameter)
	}
}

func TestSensitivity(t *testing.T) {
	c := NewCalculator()

	res, err := c.Sensitivity(context.Background(), baseParams(), ParamWACC, []float64{0.08, 0.02, 0.12})
	require.NoError(t, err)
	assert.Equal(t, ParamWACC, res.Param)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 0.08, res.Results[0].ParamValue)
	assert.Equal(t, 0.12, res.Results[1].ParamValue)
	assert.Greater(t, res.Results[0].FairValue, res.Results[1].FairValue)

	res, err = c.Sensitivity(context.Background(), baseParams(), ParamTerminalGrowth, []float64{0.01, 0.03})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Less(t, res.Results[0].FairValue, res.Results[1].FairValue)

	res, err = c.Sensitivity(context.Background(), baseParams(), ParamGrowthRate, []float64{2})
	require.NoError(t, err)
	assert.Empty(t, res.Results)

	_, err = c.Sensitivity(context.Background(), baseParams(), Param("beta"), []float64{1})
	assert.ErrorIs(t, err, types.ErrInvalidParameter)
}

func TestTwoWay(t *testing.T) {
	c := NewCalculator()
	table := c.TwoWay(context.Background(), baseParams(), []float64{0.05, 0.10}, []float64{0.02, 0.10})

	assert.Equal(t, []string{"5.0%", "10.0%"}, table.RowLabels())
	assert.Equal(t, []string{"2.0%", "10.0%"}, table.ColumnLabels())
	assert.True(t, math.IsNaN(table.At(0, 0)))
	assert.True(t, math.IsNaN(table.At(1, 0)))

	single, err := c.Detailed(context.Background(), baseParams())
	require.NoError(t, err)
	assert.InDelta(t, single.FairValuePerShare, table.At(1, 1), 1e-9)
	assert.Less(t, table.At(0, 1), table.At(1, 1))

	raw, err := json.Marshal(table)
	require.NoError(t, err)
	var decoded struct {
		GrowthRate []string     `json:"growth_rate"`
		Values     [][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []string{"5.0%", "10.0%"}, decoded.GrowthRate)
	assert.Nil(t, decoded.Values[0][0])
	require.NotNil(t, decoded.Values[1][1])
	assert.InDelta(t, single.FairValuePerShare, *decoded.Values[1][1], 1e-6)
}
