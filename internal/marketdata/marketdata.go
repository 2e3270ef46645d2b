// Package marketdata supplies daily price histories to the analyzers.
package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"stock-analyzer/internal/types"
)

// HistorySource returns up to days daily bars for symbol, oldest first.
type HistorySource interface {
	History(ctx context.Context, symbol string, days int) ([]types.Bar, error)
}

// Synthetic generates a reproducible random walk per symbol. The same seed,
// symbol and end date always produce the same bars.
type Synthetic struct {
	Seed       uint64
	StartPrice float64
	// Drift and Volatility are daily fractions.
	Drift      float64
	Volatility float64
	// End is the date of the last bar; zero means today (UTC).
	End time.Time
}

var _ HistorySource = (*Synthetic)(nil)

func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{
		Seed:       seed,
		StartPrice: 100,
		Drift:      0.0004,
		Volatility: 0.015,
	}
}

func (s *Synthetic) History(ctx context.Context, symbol string, days int) ([]types.Bar, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewPCG(s.Seed, h.Sum64()))

	end := s.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, days)
	price := s.StartPrice
	for i := range bars {
		open := price
		price *= math.Exp(s.Drift + s.Volatility*rng.NormFloat64())
		spread := math.Abs(rng.NormFloat64()) * s.Volatility * price
		bars[i] = types.Bar{
			Date:   end.AddDate(0, 0, i-days+1),
			Open:   open,
			High:   math.Max(open, price) + spread,
			Low:    math.Max(0, math.Min(open, price)-spread),
			Close:  price,
			Volume: math.Round(100_000 * (1 + rng.Float64())),
		}
	}
	return bars, nil
}
