package interfaces

import (
	"context"

	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/risk"
	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

// Valuer estimates a fair value, falling back across methods.
type Valuer interface {
	CalculateValuation(ctx context.Context, fin types.Financials, info types.Info) (*valuation.Result, error)
	// Compare runs every method side by side instead of stopping at the
	// first that succeeds.
	Compare(ctx context.Context, fin types.Financials, info types.Info) []valuation.Outcome
}

// TechnicalAnalyzer reads indicators and patterns from a price history.
type TechnicalAnalyzer interface {
	Analyze(ctx context.Context, bars []types.Bar) (*technical.Result, error)
}

// BuyScorer turns upstream readings into a recommendation.
type BuyScorer interface {
	AnalyzeBuyOpportunity(ctx context.Context, in scoring.Input) (*scoring.Result, error)
}

// DCFCalculator is the parameterised DCF with simulation and sensitivity.
type DCFCalculator interface {
	Detailed(ctx context.Context, p dcf.Params) (*dcf.Result, error)
	MonteCarlo(ctx context.Context, p dcf.MonteCarloParams) (*dcf.MonteCarloResult, error)
	Sensitivity(ctx context.Context, base dcf.Params, param dcf.Param, values []float64) (*dcf.SensitivityResult, error)
	TwoWay(ctx context.Context, base dcf.Params, growthRates, waccs []float64) *dcf.Table
}

type RiskAnalyzer interface {
	Calculate(ctx context.Context, bars []types.Bar, info types.Info) (*risk.Metrics, error)
}
