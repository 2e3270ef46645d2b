package riskobs

import (
	"context"

	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/risk"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

type observableRisk struct {
	analyzer interfaces.RiskAnalyzer
}

var _ interfaces.RiskAnalyzer = (*observableRisk)(nil)

func Wrap(a interfaces.RiskAnalyzer) interfaces.RiskAnalyzer {
	return &observableRisk{analyzer: a}
}

func (ro *observableRisk) Calculate(ctx context.Context, bars []types.Bar, info types.Info) (*risk.Metrics, error) {
	ctx, span := trace.StartSpan(ctx, "risk.Calculate")
	defer span.End()

	res, err := ro.analyzer.Calculate(ctx, bars, info)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Risk analysis failed", err,
			"symbol", info.Symbol,
			"bars", len(bars),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Risk analysis completed",
		"symbol", info.Symbol,
		"rating", res.Rating,
		"volatility", res.CurrentVolatility,
		"sharpe", res.SharpeRatio,
		"max_drawdown", res.MaxDrawdown,
	)
	return res, nil
}
