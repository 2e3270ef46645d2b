package valuationobs

import (
	"context"
	"time"

	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

type observableValuer struct {
	valuer interfaces.Valuer
}

var _ interfaces.Valuer = (*observableValuer)(nil)

func Wrap(v interfaces.Valuer) interfaces.Valuer {
	return &observableValuer{
		valuer: v,
	}
}

func (ov *observableValuer) CalculateValuation(ctx context.Context, fin types.Financials, info types.Info) (*valuation.Result, error) {
	ctx, span := trace.StartSpan(ctx, "valuation.CalculateValuation")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting valuation",
		"symbol", info.Symbol,
		"sector", info.Sector,
		"has_cash_flow", len(fin.CashFlow) > 0,
	)

	res, err := ov.valuer.CalculateValuation(ctx, fin, info)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Valuation failed", err,
			"symbol", info.Symbol,
			"kind", types.KindOf(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Valuation(ctx, info.Symbol, string(res.Method), res.FairValue, res.Upside,
		"valuation_type", res.ValuationType,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (ov *observableValuer) Compare(ctx context.Context, fin types.Financials, info types.Info) []valuation.Outcome {
	ctx, span := trace.StartSpan(ctx, "valuation.Compare")
	defer span.End()

	outcomes := ov.valuer.Compare(ctx, fin, info)
	logger.DebugSkip(ctx, 1, "Valuation methods compared",
		"symbol", info.Symbol,
		"methods", len(outcomes),
		"succeeded", len(valuation.Succeeded(outcomes)),
	)
	return outcomes
}
