// Package scoring combines valuation, technical, sentiment, momentum and
// fundamental readings into a 0..100 buy-opportunity score with an entry
// range, target and stop.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/ta"
	"stock-analyzer/internal/technical"
	"stock-analyzer/internal/types"
	"stock-analyzer/internal/valuation"
)

const opScore = "Buy Opportunity"

// Recommendations.
const (
	StrongBuy = "STRONG BUY"
	Buy       = "BUY"
	Hold      = "HOLD"
)

// Confidence buckets, aligned with the recommendation thresholds.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

const (
	strongBuyThreshold = 70.0
	buyThreshold       = 50.0

	undervaluedUpside = 15.0
	rsiOversold       = 35.0
	volumeSurge       = 1.5
	sentimentBand     = 20.0

	monthBars   = 20
	quarterBars = 60

	fairPE          = 20.0
	healthyMargin   = 0.15
	stopLossFactor  = 0.95
	fallbackTarget  = 1.15
	weightTolerance = 1e-6
)

// Weights are the fractional contributions of each sub-score; they must sum
// to one.
type Weights struct {
	Valuation    float64 `yaml:"valuation" json:"valuation"`
	Technical    float64 `yaml:"technical" json:"technical"`
	Sentiment    float64 `yaml:"sentiment" json:"sentiment"`
	Momentum     float64 `yaml:"momentum" json:"momentum"`
	Fundamentals float64 `yaml:"fundamentals" json:"fundamentals"`
}

func DefaultWeights() Weights {
	return Weights{
		Valuation:    0.30,
		Technical:    0.25,
		Sentiment:    0.15,
		Momentum:     0.15,
		Fundamentals: 0.15,
	}
}

func (w Weights) Validate() error {
	parts := map[string]float64{
		"valuation":    w.Valuation,
		"technical":    w.Technical,
		"sentiment":    w.Sentiment,
		"momentum":     w.Momentum,
		"fundamentals": w.Fundamentals,
	}
	sum := 0.0
	for name, v := range parts {
		if v < 0 || math.IsNaN(v) {
			return types.Invalid(opScore, fmt.Sprintf("weight %s must be non-negative, got %v", name, v))
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return types.Invalid(opScore, fmt.Sprintf("weights must sum to 1, got %.6f", sum))
	}
	return nil
}

// Scores holds each sub-score on a 0..100 scale.
type Scores struct {
	Valuation    float64 `json:"valuation"`
	Technical    float64 `json:"technical"`
	Sentiment    float64 `json:"sentiment"`
	Momentum     float64 `json:"momentum"`
	Fundamentals float64 `json:"fundamentals"`
}

func (s Scores) weighted(w Weights) float64 {
	return s.Valuation*w.Valuation +
		s.Technical*w.Technical +
		s.Sentiment*w.Sentiment +
		s.Momentum*w.Momentum +
		s.Fundamentals*w.Fundamentals
}

type BuyRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type Result struct {
	Ticker          string   `json:"ticker"`
	CurrentPrice    float64  `json:"current_price"`
	TotalScore      float64  `json:"total_score"`
	Confidence      string   `json:"confidence"`
	BuyRange        BuyRange `json:"buy_range"`
	TargetPrice     float64  `json:"target_price"`
	StopLoss        float64  `json:"stop_loss"`
	RiskRewardRatio float64  `json:"risk_reward_ratio"`
	Scores          Scores   `json:"scores"`
	Signals         []string `json:"signals"`
	Recommendation  string   `json:"recommendation"`
}

// Input carries the upstream readings. A nil Valuation or Technical means the
// upstream calculation failed; it contributes its neutral default.
type Input struct {
	Ticker    string
	Valuation *valuation.Result
	Technical *technical.Result
	Sentiment *types.Sentiment
	Info      types.Info
	History   []types.Bar
}

// Scorer holds an immutable weight set and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

func New(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// Weights returns the weight set the scorer was built with.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// AnalyzeBuyOpportunity scores in and derives the entry range, target price,
// stop loss and recommendation.
func (s *Scorer) AnalyzeBuyOpportunity(ctx context.Context, in Input) (res *Result, err error) {
	defer types.Recover(opScore, &err)

	var signals []string
	scores := Scores{
		Valuation:    scoreValuation(in.Valuation, &signals),
		Technical:    scoreTechnical(in.Technical, &signals),
		Sentiment:    scoreSentiment(in.Sentiment, &signals),
		Momentum:     scoreMomentum(in.History, &signals),
		Fundamentals: scoreFundamentals(in.Info),
	}
	total := scores.weighted(s.weights)

	price := in.Info.Price()
	if price <= 0 && len(in.History) > 0 {
		price = in.History[len(in.History)-1].Close
	}

	res = &Result{
		Ticker:         in.Ticker,
		CurrentPrice:   price,
		TotalScore:     total,
		Scores:         scores,
		Signals:        signals,
		Recommendation: Recommendation(total),
	}
	res.BuyRange, res.Confidence = buyRange(total, price)
	res.TargetPrice = targetPrice(in.Valuation, in.Technical, price)
	res.StopLoss = res.BuyRange.Low * stopLossFactor
	if denom := price - res.StopLoss; denom > 0 {
		res.RiskRewardRatio = (res.TargetPrice - price) / denom
	}
	if res.Signals == nil {
		res.Signals = []string{}
	}

	logger.Decision(ctx, in.Ticker, res.Recommendation, total, strings.Join(res.Signals, "; "),
		"confidence", res.Confidence,
		"target_price", res.TargetPrice,
		"stop_loss", res.StopLoss,
	)
	return res, nil
}

// Recommendation maps a total score to its label.
func Recommendation(total float64) string {
	switch {
	case total >= strongBuyThreshold:
		return StrongBuy
	case total >= buyThreshold:
		return Buy
	default:
		return Hold
	}
}

func scoreValuation(v *valuation.Result, signals *[]string) float64 {
	if v == nil || v.Upside <= undervaluedUpside {
		return 0
	}
	*signals = append(*signals, fmt.Sprintf("Undervalued by %.1f%%", v.Upside))
	return math.Min(100, v.Upside*2)
}

func scoreTechnical(t *technical.Result, signals *[]string) float64 {
	if t == nil {
		return 0
	}
	score := 0.0
	if t.RSI.Value < rsiOversold {
		score += 30
		*signals = append(*signals, fmt.Sprintf("RSI oversold at %.1f", t.RSI.Value))
	}
	if t.MACD.Bullish {
		score += 20
		*signals = append(*signals, "MACD bullish crossover")
	}
	if t.SupportResistance.NearSupport {
		score += 30
		*signals = append(*signals, "Near support level")
	}
	if t.Volume.Ratio > volumeSurge {
		score += 20
		*signals = append(*signals, "Volume surge detected")
	}
	return math.Min(100, score)
}

func scoreSentiment(s *types.Sentiment, signals *[]string) float64 {
	switch {
	case s == nil:
		return 50
	case s.Score > sentimentBand:
		*signals = append(*signals, "Positive sentiment")
		return 70
	case s.Score < -sentimentBand:
		return 30
	default:
		return 50
	}
}

// scoreMomentum rewards a modest one-month gain and a shallow three-month
// pullback.
func scoreMomentum(bars []types.Bar, signals *[]string) float64 {
	if len(bars) <= monthBars {
		return 0
	}
	closes := types.Closes(bars)
	score := 0.0
	if r := ta.PctReturn(closes, monthBars); r > 0 && r < 10 {
		score += 50
	}
	if r := ta.PctReturn(closes, quarterBars); r > -10 && r < 0 {
		score += 30
		*signals = append(*signals, "Healthy pullback in uptrend")
	}
	return math.Min(100, score)
}

func scoreFundamentals(info types.Info) float64 {
	score := 50.0
	if info.TrailingPE > 0 && info.TrailingPE < fairPE {
		score += 25
	}
	if info.ProfitMargins > healthyMargin {
		score += 25
	}
	return math.Min(100, score)
}

func buyRange(total, price float64) (BuyRange, string) {
	switch {
	case total >= strongBuyThreshold:
		return BuyRange{Low: price * 0.98, High: price * 1.02}, ConfidenceHigh
	case total >= buyThreshold:
		return BuyRange{Low: price * 0.95, High: price}, ConfidenceMedium
	default:
		return BuyRange{Low: price * 0.90, High: price * 0.95}, ConfidenceLow
	}
}

// targetPrice prefers the fair value, then technical resistance, then a flat
// 15% above price.
func targetPrice(v *valuation.Result, t *technical.Result, price float64) float64 {
	if v != nil {
		return v.FairValue
	}
	if t != nil && t.SupportResistance.Resistance > 0 {
		return t.SupportResistance.Resistance
	}
	return price * fallbackTarget
}
