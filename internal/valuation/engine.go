package valuation

import (
	"context"
	"errors"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/sector"
	"stock-analyzer/internal/types"
)

// Config holds the market assumptions shared by every method.
type Config struct {
	RiskFreeRate      float64
	MarketRiskPremium float64
	TerminalGrowth    float64
	// GrowthRate is the projection growth of the simple DCF.
	GrowthRate      float64
	ProjectionYears int
	// IndustryPE is used when the snapshot carries no industryPE.
	IndustryPE float64
	MaxPE      float64
	TargetPB   float64
	MaxPEG     float64
}

func DefaultConfig() Config {
	return Config{
		RiskFreeRate:      0.04,
		MarketRiskPremium: 0.08,
		TerminalGrowth:    0.025,
		GrowthRate:        0.10,
		ProjectionYears:   5,
		IndustryPE:        20,
		MaxPE:             25,
		TargetPB:          1.5,
		MaxPEG:            2.0,
	}
}

// ZeroFCFValuer values companies without usable free cash flow.
type ZeroFCFValuer interface {
	Value(info types.Info, fin types.Financials) (*Result, error)
}

// Engine selects and runs valuation methods. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	cfg     Config
	sectors *sector.Table
	zeroFCF ZeroFCFValuer
}

type Option func(*Engine)

// WithSectorTable replaces the built-in sector benchmarks.
func WithSectorTable(t *sector.Table) Option {
	return func(e *Engine) { e.sectors = t }
}

// WithZeroFCF replaces the built-in Zero-FCF suite.
func WithZeroFCF(z ZeroFCFValuer) Option {
	return func(e *Engine) { e.zeroFCF = z }
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, sectors: sector.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.zeroFCF == nil {
		e.zeroFCF = NewZeroFCFEngine(e.sectors)
	}
	return e
}

// CalculateValuation tries traditional DCF when free cash flow is usable, then
// the Zero-FCF suite, then multiples. The first success wins.
func (e *Engine) CalculateValuation(ctx context.Context, fin types.Financials, info types.Info) (res *Result, err error) {
	defer types.Recover(string(MethodAuto), &err)

	if e.hasPositiveFCF(fin) {
		dcf, err := e.DCF(fin, info)
		if err == nil {
			dcf.ValuationType = TypeTraditionalDCF
			return dcf, nil
		}
		logger.Debug(ctx, "DCF unavailable, falling back", "error", err)
	}

	logger.Info(ctx, "Using Zero-FCF valuation methods", "sector", info.Sector, "industry", info.Industry)
	zero, err := e.zeroFCF.Value(info, fin)
	if err == nil {
		zero.ValuationType = TypeZeroFCF
		return zero, nil
	}
	logger.Debug(ctx, "Zero-FCF valuation unavailable, falling back", "error", err)

	mult, err := e.Multiples(info)
	if err == nil {
		mult.ValuationType = TypeMultiples
		return mult, nil
	}
	logger.Debug(ctx, "Multiples valuation unavailable", "error", err)

	return nil, &types.Error{
		Kind:   types.InsufficientData,
		Method: string(MethodAuto),
		Msg:    "Unable to calculate valuation with available data",
		Hint:   "More financial data needed for accurate valuation",
	}
}

// hasPositiveFCF needs at least two strictly positive values among the four
// most recent cash flow periods.
func (e *Engine) hasPositiveFCF(fin types.Financials) bool {
	positive := 0
	for _, v := range cashFlowSeries(fin.CashFlow) {
		if v > 0 {
			positive++
		}
	}
	return positive >= 2
}

// cashFlowSeries prefers "Free Cash Flow" and falls back to
// "Operating Cash Flow", four most recent periods.
func cashFlowSeries(cf types.Statement) []float64 {
	if cf.Has("Free Cash Flow") {
		return cf.Head("Free Cash Flow", 4)
	}
	return cf.Head("Operating Cash Flow", 4)
}

func (e *Engine) costOfEquity(info types.Info) float64 {
	return e.cfg.RiskFreeRate + types.Or(info.Beta, 1.0)*e.cfg.MarketRiskPremium
}

// Outcome pairs a method with its result or failure.
type Outcome struct {
	Method Method
	Result *Result
	Err    error
}

// Compare runs every single-input method side by side. Methods that need extra
// inputs (reserves, segments, pipeline) run in their simplified form.
func (e *Engine) Compare(_ context.Context, fin types.Financials, info types.Info) []Outcome {
	run := func(m Method, fn func() (*Result, error)) Outcome {
		r, err := fn()
		return Outcome{Method: m, Result: r, Err: err}
	}
	return []Outcome{
		run(MethodDCF, func() (*Result, error) { return e.DCF(fin, info) }),
		run(MethodMultiples, func() (*Result, error) { return e.Multiples(info) }),
		run(MethodDDM, func() (*Result, error) { return e.DDM(info) }),
		run(MethodNAV, func() (*Result, error) { return e.NAV(info) }),
		run(MethodREIT, func() (*Result, error) { return e.REIT(info, fin) }),
		run(MethodRevenueMultiple, func() (*Result, error) { return e.RevenueMultiple(info) }),
		run(MethodNormalizedEarnings, func() (*Result, error) { return e.NormalizedEarnings(info, fin) }),
		run(MethodCommodityReserve, func() (*Result, error) { return e.CommodityReserve(info, CommodityInputs{}) }),
		run(MethodSumOfPartsSimple, func() (*Result, error) { return e.SumOfParts(info, nil) }),
		run(MethodBiotechPipeline, func() (*Result, error) { return e.BiotechPipeline(info, fin, nil) }),
		run(MethodZeroFCF, func() (*Result, error) { return e.zeroFCF.Value(info, fin) }),
	}
}

// Succeeded filters outcomes to successful results.
func Succeeded(outcomes []Outcome) []*Result {
	var out []*Result
	for _, o := range outcomes {
		if o.Err == nil && o.Result != nil {
			out = append(out, o.Result)
		}
	}
	return out
}

// IsInsufficient reports whether err means the snapshot lacked data.
func IsInsufficient(err error) bool {
	return errors.Is(err, types.ErrInsufficientData)
}
