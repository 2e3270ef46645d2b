package dcfobs

import (
	"context"
	"time"

	"stock-analyzer/internal/dcf"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/trace"
)

type observableCalculator struct {
	calc interfaces.DCFCalculator
}

var _ interfaces.DCFCalculator = (*observableCalculator)(nil)

func Wrap(c interfaces.DCFCalculator) interfaces.DCFCalculator {
	return &observableCalculator{
		calc: c,
	}
}

func (oc *observableCalculator) Detailed(ctx context.Context, p dcf.Params) (*dcf.Result, error) {
	ctx, span := trace.StartSpan(ctx, "dcf.Detailed")
	defer span.End()

	res, err := oc.calc.Detailed(ctx, p)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Detailed DCF rejected", err,
			"wacc", p.WACC,
			"terminal_growth", p.TerminalGrowth,
			"growth_rate", p.GrowthRate,
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Detailed DCF computed",
		"fair_value", res.FairValuePerShare,
		"enterprise_value", res.EnterpriseValue,
	)
	return res, nil
}

func (oc *observableCalculator) MonteCarlo(ctx context.Context, p dcf.MonteCarloParams) (*dcf.MonteCarloResult, error) {
	timer := logger.StartOperation(ctx, "dcf.MonteCarlo",
		"simulations", p.Simulations,
		"workers", p.Workers,
	)

	res, err := oc.calc.MonteCarlo(timer.GetContext(), p)
	if err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	timer.End(
		"successful", res.Successful,
		"fair_value_mean", res.FairValue.Mean,
		"fair_value_std", res.FairValue.Std,
	)
	return res, nil
}

func (oc *observableCalculator) Sensitivity(ctx context.Context, base dcf.Params, param dcf.Param, values []float64) (*dcf.SensitivityResult, error) {
	ctx, span := trace.StartSpan(ctx, "dcf.Sensitivity")
	defer span.End()

	start := time.Now()
	res, err := oc.calc.Sensitivity(ctx, base, param, values)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Sensitivity analysis failed", err, "param", string(param))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Sensitivity analysis completed",
		"param", string(param),
		"requested", len(values),
		"valid", len(res.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (oc *observableCalculator) TwoWay(ctx context.Context, base dcf.Params, growthRates, waccs []float64) *dcf.Table {
	ctx, span := trace.StartSpan(ctx, "dcf.TwoWay")
	defer span.End()

	table := oc.calc.TwoWay(ctx, base, growthRates, waccs)
	logger.DebugSkip(ctx, 1, "Two-way sensitivity table built",
		"rows", len(growthRates),
		"columns", len(waccs),
	)
	return table
}
