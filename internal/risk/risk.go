// Package risk derives return-based risk metrics and a coarse risk rating from
// a daily price history.
package risk

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/stats"
	"stock-analyzer/internal/ta"
	"stock-analyzer/internal/types"
)

const (
	opRisk = "Risk Analysis"

	MinBars = 30

	tradingDays   = 252
	volWindow     = 30
	volHistoryLen = 60
	varPercentile = 5
)

// Ratings.
const (
	VeryHigh = "Very High Risk"
	High     = "High Risk"
	Moderate = "Moderate Risk"
	Low      = "Low Risk"
)

type Config struct {
	// RiskFreeRate is annual.
	RiskFreeRate float64
	DefaultBeta  float64
}

func DefaultConfig() Config {
	return Config{RiskFreeRate: 0.045, DefaultBeta: 1.0}
}

// Metrics are annualised where noted; percentages are in percent units.
type Metrics struct {
	Beta              float64   `json:"beta"`
	SharpeRatio       float64   `json:"sharpe_ratio"`
	SortinoRatio      float64   `json:"sortino_ratio"`
	CurrentVolatility float64   `json:"current_volatility"`
	AverageVolatility float64   `json:"average_volatility"`
	MaxDrawdown       float64   `json:"max_drawdown"`
	VaR95             float64   `json:"var_95"`
	CVaR95            float64   `json:"cvar_95"`
	RollingVolatility []float64 `json:"rolling_volatility"`
	Rating            string    `json:"risk_rating"`
}

type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Calculate needs at least 30 bars. Beta comes from info, defaulting to 1.
func (a *Analyzer) Calculate(ctx context.Context, bars []types.Bar, info types.Info) (m *Metrics, err error) {
	defer types.Recover(opRisk, &err)

	if len(bars) < MinBars {
		return nil, types.Insufficient(opRisk, "Insufficient data for risk analysis")
	}

	returns := stats.DropNaN(ta.Returns(types.Closes(bars)))
	if len(returns) < 2 {
		return nil, types.Insufficient(opRisk, "Insufficient data for risk analysis")
	}

	m = &Metrics{Beta: types.Or(info.Beta, a.cfg.DefaultBeta)}

	mean, std := stat.MeanStdDev(returns, nil)
	excess := mean - a.cfg.RiskFreeRate/tradingDays
	annualise := math.Sqrt(tradingDays)
	if std > 0 {
		m.SharpeRatio = excess / std * annualise
	}

	downsideStd := std
	if downside := negatives(returns); len(downside) > 0 {
		downsideStd = stats.SampleStdDev(downside)
	}
	if downsideStd > 0 {
		m.SortinoRatio = excess / downsideStd * annualise
	}

	rolling := rollingVolatility(returns)
	if len(rolling) > 0 {
		m.CurrentVolatility = rolling[len(rolling)-1]
		m.AverageVolatility = stats.Mean(rolling)
	}
	if len(rolling) > volHistoryLen {
		rolling = rolling[len(rolling)-volHistoryLen:]
	}
	m.RollingVolatility = rolling

	m.MaxDrawdown = maxDrawdown(returns) * 100

	sorted := stats.Sorted(returns)
	cutoff := stats.PercentileSorted(sorted, varPercentile)
	m.VaR95 = cutoff * 100
	m.CVaR95 = stats.Mean(tail(sorted, cutoff)) * 100

	m.Rating = Rating(m.CurrentVolatility, m.Beta, m.MaxDrawdown)
	if m.Rating == VeryHigh || m.Rating == High {
		logger.Risk(ctx, info.Symbol, m.Rating,
			"volatility", m.CurrentVolatility,
			"beta", m.Beta,
			"max_drawdown", m.MaxDrawdown,
		)
	}
	return m, nil
}

// Rating scores volatility (up to 3 points), beta (up to 2) and drawdown
// (up to 3).
func Rating(volatility, beta, maxDrawdown float64) string {
	points := 0
	switch {
	case volatility > 50:
		points += 3
	case volatility > 30:
		points += 2
	case volatility > 15:
		points++
	}
	switch b := math.Abs(beta); {
	case b > 1.5:
		points += 2
	case b > 1.0:
		points++
	}
	switch dd := math.Abs(maxDrawdown); {
	case dd > 50:
		points += 3
	case dd > 30:
		points += 2
	case dd > 15:
		points++
	}

	switch {
	case points >= 6:
		return VeryHigh
	case points >= 4:
		return High
	case points >= 2:
		return Moderate
	default:
		return Low
	}
}

func negatives(returns []float64) []float64 {
	var out []float64
	for _, r := range returns {
		if r < 0 {
			out = append(out, r)
		}
	}
	return out
}

// rollingVolatility is the annualised 30-return sample deviation in percent,
// one value per complete window.
func rollingVolatility(returns []float64) []float64 {
	if len(returns) < volWindow {
		return []float64{}
	}
	out := make([]float64, 0, len(returns)-volWindow+1)
	for end := volWindow; end <= len(returns); end++ {
		sd := stats.SampleStdDev(returns[end-volWindow : end])
		out = append(out, sd*math.Sqrt(tradingDays)*100)
	}
	return out
}

// maxDrawdown is the deepest fall of the compounded return path from its
// running peak, as a non-positive fraction.
func maxDrawdown(returns []float64) float64 {
	growth := make([]float64, len(returns))
	for i, r := range returns {
		growth[i] = 1 + r
	}
	path := floats.CumProd(make([]float64, len(growth)), growth)

	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range path {
		peak = math.Max(peak, v)
		worst = math.Min(worst, (v-peak)/peak)
	}
	return worst
}

// tail returns the leading values of an ascending slice up to and including
// cutoff.
func tail(sorted []float64, cutoff float64) []float64 {
	i := 0
	for i < len(sorted) && sorted[i] <= cutoff {
		i++
	}
	return sorted[:i]
}
