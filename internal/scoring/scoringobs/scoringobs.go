package scoringobs

import (
	"context"
	"time"

	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/trace"
)

type observableScorer struct {
	scorer interfaces.BuyScorer
}

var _ interfaces.BuyScorer = (*observableScorer)(nil)

func Wrap(s interfaces.BuyScorer) interfaces.BuyScorer {
	return &observableScorer{
		scorer: s,
	}
}

func (so *observableScorer) AnalyzeBuyOpportunity(ctx context.Context, in scoring.Input) (*scoring.Result, error) {
	ctx, span := trace.StartSpan(ctx, "scoring.AnalyzeBuyOpportunity")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Scoring buy opportunity",
		"ticker", in.Ticker,
		"has_valuation", in.Valuation != nil,
		"has_technical", in.Technical != nil,
		"has_sentiment", in.Sentiment != nil,
	)

	res, err := so.scorer.AnalyzeBuyOpportunity(ctx, in)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Buy opportunity scoring failed", err,
			"ticker", in.Ticker,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Buy opportunity scored",
		"ticker", in.Ticker,
		"total_score", res.TotalScore,
		"recommendation", res.Recommendation,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
