package technicalobs

import (
	"context"

	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

type observableAnalyzer struct {
	analyzer interfaces.TechnicalAnalyzer
}

var _ interfaces.TechnicalAnalyzer = (*observableAnalyzer)(nil)

func Wrap(a interfaces.TechnicalAnalyzer) interfaces.TechnicalAnalyzer {
	return &observableAnalyzer{
		analyzer: a,
	}
}

func (oa *observableAnalyzer) Analyze(ctx context.Context, bars []types.Bar) (*technical.Result, error) {
	ctx, span := trace.StartSpan(ctx, "technical.Analyze")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Running technical analysis", "bars", len(bars))

	res, err := oa.analyzer.Analyze(ctx, bars)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Technical analysis failed", err, "bars", len(bars))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Technical analysis completed",
		"trend", res.Trend,
		"rsi", res.RSI.Value,
		"rsi_signal", res.RSI.Signal,
		"macd_bullish", res.MACD.Bullish,
		"patterns", len(res.Patterns),
	)
	return res, nil
}
