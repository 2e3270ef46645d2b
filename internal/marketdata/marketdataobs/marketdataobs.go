package marketdataobs

import (
	"context"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/marketdata"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

// observableSource wraps a HistorySource with logging and tracing
type observableSource struct {
	source marketdata.HistorySource
}

var _ marketdata.HistorySource = (*observableSource)(nil)

func Wrap(source marketdata.HistorySource) marketdata.HistorySource {
	return &observableSource{
		source: source,
	}
}

func (so *observableSource) History(ctx context.Context, symbol string, days int) ([]types.Bar, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.History")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price history", "symbol", symbol, "days", days)

	bars, err := so.source.History(ctx, symbol, days)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price history", err, "symbol", symbol, "days", days)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Price history fetched", "symbol", symbol, "bars", len(bars))
	return bars, nil
}
