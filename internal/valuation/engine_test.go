package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/types"
)

func cashFlows(fcf ...float64) types.Financials {
	return types.Financials{CashFlow: types.Statement{"Free Cash Flow": fcf}}
}

func TestDCFWithoutCashFlow(t *testing.T) {
	e := NewEngine(DefaultConfig())
	info := types.Info{
		Beta:              types.Float(1.2),
		SharesOutstanding: 1e8,
		CurrentPrice:      150,
		TotalCash:         1e9,
		TotalDebt:         5e8,
	}

	res, err := e.DCF(types.Financials{}, info)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "No cash flow data available", err.Error())
	assert.True(t, errors.Is(err, types.ErrInsufficientData))
}

func TestDCFScenarioOrdering(t *testing.T) {
	e := NewEngine(DefaultConfig())
	info := types.Info{Beta: types.Float(1.2), SharesOutstanding: 1e8, CurrentPrice: 10}

	res, err := e.DCF(cashFlows(100e6, 90e6, 80e6, 70e6), info)
	require.NoError(t, err)
	require.NotNil(t, res.Scenarios)

	assert.Equal(t, MethodDCF, res.Method)
	assert.InDelta(t, 13.6, res.WACC, 1e-9)
	assert.Greater(t, res.FairValue, 0.0)
	assert.Less(t, res.Scenarios.Bear, res.Scenarios.Base)
	assert.Less(t, res.Scenarios.Base, res.Scenarios.Bull)
	assert.InDelta(t, (res.FairValue-10)/10*100, res.Upside, 1e-9)
}

func TestDCFRejectsLowDiscountRate(t *testing.T) {
	e := NewEngine(DefaultConfig())
	// beta of -0.5 drives the cost of equity to zero
	info := types.Info{Beta: types.Float(-0.5), SharesOutstanding: 1e6, CurrentPrice: 10}

	_, err := e.DCF(cashFlows(1e6, 1e6), info)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidParameter))
	assert.Equal(t, "WACC must be greater than terminal growth rate", err.Error())
}

func TestDCFFallsBackToOperatingCashFlow(t *testing.T) {
	e := NewEngine(DefaultConfig())
	fin := types.Financials{CashFlow: types.Statement{"Operating Cash Flow": {5e6, 4e6}}}

	res, err := e.DCF(fin, types.Info{SharesOutstanding: 1e6, CurrentPrice: 20})
	require.NoError(t, err)
	assert.Greater(t, res.EnterpriseValue, 0.0)
}

func TestShareCountGuard(t *testing.T) {
	e := NewEngine(DefaultConfig())
	info := types.Info{
		CurrentPrice:      100,
		PriceToBook:       2,
		TrailingEPS:       5,
		EnterpriseValue:   1e9,
		TotalAssets:       1e9,
		PriceToSalesTTM:   3,
		TotalRevenue:      1e9,
		EBITDA:            2e8,
		DividendYield:     0.02,
		SharesOutstanding: 0,
	}
	fin := cashFlows(1e6, 1e6, 1e6)

	tests := []struct {
		name string
		run  func() (*Result, error)
	}{
		{"dcf", func() (*Result, error) { return e.DCF(fin, info) }},
		{"nav", func() (*Result, error) { return e.NAV(info) }},
		{"reit", func() (*Result, error) { return e.REIT(info, fin) }},
		{"commodity", func() (*Result, error) { return e.CommodityReserve(info, CommodityInputs{}) }},
		{"sum of parts", func() (*Result, error) { return e.SumOfParts(info, nil) }},
		{"biotech", func() (*Result, error) { return e.BiotechPipeline(info, fin, nil) }},
		{"zero fcf", func() (*Result, error) { return e.zeroFCF.Value(info, fin) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.run()
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsInsufficient(err))
		})
	}
}

func TestHasPositiveFCF(t *testing.T) {
	e := NewEngine(DefaultConfig())
	tests := []struct {
		name string
		fin  types.Financials
		want bool
	}{
		{"empty", types.Financials{}, false},
		{"one positive", cashFlows(10, -5, -5, -5), false},
		{"two positive", cashFlows(10, -5, 3, -5), true},
		{"positive beyond four periods ignored", cashFlows(-1, -1, -1, 10, 10), false},
		{"operating cash flow", types.Financials{CashFlow: types.Statement{"Operating Cash Flow": {1, 2}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.hasPositiveFCF(tt.fin))
		})
	}
}

func TestCalculateValuationFallbackChain(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultConfig())

	tests := []struct {
		name     string
		fin      types.Financials
		info     types.Info
		wantType string
		method   Method
	}{
		{
			name:     "positive free cash flow",
			fin:      cashFlows(100e6, 90e6),
			info:     types.Info{SharesOutstanding: 1e8, CurrentPrice: 10},
			wantType: TypeTraditionalDCF,
			method:   MethodDCF,
		},
		{
			name:     "burning cash with revenue",
			fin:      cashFlows(-50e6, -40e6),
			info:     types.Info{SharesOutstanding: 1e8, CurrentPrice: 10, TotalRevenue: 5e8, Sector: "Industrials"},
			wantType: TypeZeroFCF,
			method:   MethodZeroFCF,
		},
		{
			name:     "book value only",
			fin:      types.Financials{},
			info:     types.Info{SharesOutstanding: 1e8, CurrentPrice: 10, PriceToBook: 2},
			wantType: TypeMultiples,
			method:   MethodMultiples,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.CalculateValuation(ctx, tt.fin, tt.info)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, res.ValuationType)
			assert.Equal(t, tt.method, res.Method)
		})
	}
}

func TestCalculateValuationNothingApplies(t *testing.T) {
	e := NewEngine(DefaultConfig())

	_, err := e.CalculateValuation(context.Background(), types.Financials{}, types.Info{SharesOutstanding: 1e6})
	require.Error(t, err)

	var verr *types.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Unable to calculate valuation with available data", verr.Msg)
	assert.Equal(t, "More financial data needed for accurate valuation", verr.Hint)
	assert.Equal(t, types.InsufficientData, verr.Kind)
}

type stubZeroFCF struct {
	calls int
}

func (s *stubZeroFCF) Value(types.Info, types.Financials) (*Result, error) {
	s.calls++
	return nil, types.Failure(string(MethodZeroFCF), "boom")
}

func TestCalculateValuationIsolatesFailures(t *testing.T) {
	stub := &stubZeroFCF{}
	e := NewEngine(DefaultConfig(), WithZeroFCF(stub))

	res, err := e.CalculateValuation(context.Background(), types.Financials{}, types.Info{CurrentPrice: 10, PriceToBook: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, MethodMultiples, res.Method)
}

func TestCompareRunsEveryMethod(t *testing.T) {
	e := NewEngine(DefaultConfig())
	info := types.Info{SharesOutstanding: 1e6, CurrentPrice: 50, PriceToBook: 2, TotalAssets: 1e8, TotalLiabilities: 4e7}

	outcomes := e.Compare(context.Background(), types.Financials{}, info)
	require.Len(t, outcomes, 11)
	for _, o := range outcomes {
		assert.True(t, (o.Err == nil) != (o.Result == nil), o.Method)
	}

	ok := Succeeded(outcomes)
	require.NotEmpty(t, ok)
	methods := make([]Method, 0, len(ok))
	for _, r := range ok {
		methods = append(methods, r.Method)
	}
	assert.Contains(t, methods, MethodNAV)
	assert.Contains(t, methods, MethodMultiples)
}
