// Package technical turns a price history into indicator readings, a trend
// classification and simple chart patterns.
package technical

import (
	"context"
	"math"

	"stock-analyzer/internal/ta"
	"stock-analyzer/internal/types"
)

const (
	opAnalyze = "Technical Analysis"

	// MinBars is the shortest history Analyze accepts.
	MinBars = 20
	// TrendBars is the shortest history with a trend classification.
	TrendBars = 50

	levelWindow  = 20
	volumeWindow = 20
	obvWindow    = 20
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
	// crossoverLookback compares averages this many bars back, counting the
	// latest bar as one.
	crossoverLookback = 5
)

// Signal strings shared by several readings.
const (
	SignalOversold         = "oversold"
	SignalOverbought       = "overbought"
	SignalNeutral          = "neutral"
	SignalStrongTrend      = "strong_trend"
	SignalWeakTrend        = "weak_trend"
	SignalInsufficientData = "insufficient_data"
)

// Trend classifications.
const (
	TrendBullish          = "bullish"
	TrendBearish          = "bearish"
	TrendBullishCrossover = "bullish_crossover"
	TrendBearishCrossover = "bearish_crossover"
	TrendInsufficientData = "insufficient_data"
)

type Config struct {
	RSIPeriod         int
	RSIOversold       float64
	RSIOverbought     float64
	BBWindow          int
	BBStdDev          float64
	ADXPeriod         int
	ADXTrendThreshold float64
	// NearLevelPct is the fractional distance that counts as near support or
	// resistance.
	NearLevelPct     float64
	VolumeSurgeRatio float64
}

func DefaultConfig() Config {
	return Config{
		RSIPeriod:         14,
		RSIOversold:       30,
		RSIOverbought:     70,
		BBWindow:          20,
		BBStdDev:          2,
		ADXPeriod:         14,
		ADXTrendThreshold: 25,
		NearLevelPct:      0.02,
		VolumeSurgeRatio:  1.5,
	}
}

type PriceAction struct {
	Price       float64 `json:"price"`
	SMA20       float64 `json:"sma_20"`
	SMA50       float64 `json:"sma_50"`
	SMA200      float64 `json:"sma_200"`
	AboveSMA20  bool    `json:"above_sma_20"`
	AboveSMA50  bool    `json:"above_sma_50"`
	AboveSMA200 bool    `json:"above_sma_200"`
}

type RSI struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// MACD is invalid until the signal line has enough history; an invalid
// reading is never bullish.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Bullish   bool    `json:"bullish"`
	Valid     bool    `json:"valid"`
}

type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Price  float64 `json:"price"`
	Signal string  `json:"signal"`
}

type SupportResistance struct {
	Resistance     float64 `json:"resistance"`
	Support        float64 `json:"support"`
	Price          float64 `json:"price"`
	NearSupport    bool    `json:"near_support"`
	NearResistance bool    `json:"near_resistance"`
}

type Volume struct {
	Current    float64 `json:"current"`
	Average    float64 `json:"average"`
	Ratio      float64 `json:"ratio"`
	Increasing bool    `json:"increasing"`
}

type ADX struct {
	Value   float64 `json:"value"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
	Signal  string  `json:"signal"`
}

type OBV struct {
	Value   float64 `json:"value"`
	MA20    float64 `json:"ma_20"`
	Bullish bool    `json:"bullish"`
}

// Result is one full technical reading at the latest bar.
type Result struct {
	PriceAction       PriceAction       `json:"price_action"`
	RSI               RSI               `json:"rsi"`
	MACD              MACD              `json:"macd"`
	Bollinger         Bollinger         `json:"bollinger"`
	SupportResistance SupportResistance `json:"support_resistance"`
	Volume            Volume            `json:"volume"`
	ADX               ADX               `json:"adx"`
	OBV               OBV               `json:"obv"`
	Trend             string            `json:"trend"`
	Patterns          []Pattern         `json:"patterns"`
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze computes every indicator at the last bar. Bars must be in date order.
func (a *Analyzer) Analyze(ctx context.Context, bars []types.Bar) (res *Result, err error) {
	defer types.Recover(opAnalyze, &err)

	if len(bars) < MinBars {
		return nil, types.Insufficient(opAnalyze, "Insufficient data for technical analysis")
	}

	closes := types.Closes(bars)
	highs := types.Highs(bars)
	lows := types.Lows(bars)
	volumes := types.Volumes(bars)
	price := closes[len(closes)-1]

	return &Result{
		PriceAction:       priceAction(closes),
		RSI:               a.rsi(closes),
		MACD:              macd(closes),
		Bollinger:         a.bollinger(closes),
		SupportResistance: a.levels(highs, lows, price),
		Volume:            a.volume(volumes),
		ADX:               a.adx(highs, lows, closes),
		OBV:               obv(closes, volumes),
		Trend:             Trend(closes),
		Patterns:          DetectPatterns(bars),
	}, nil
}

// priceAction falls back to the next shorter average when history cannot
// cover 50 or 200 bars.
func priceAction(closes []float64) PriceAction {
	n := len(closes)
	price := closes[n-1]
	sma20 := ta.SMA(closes, 20)
	sma50 := sma20
	if n >= 50 {
		sma50 = ta.SMA(closes, 50)
	}
	sma200 := sma50
	if n >= 200 {
		sma200 = ta.SMA(closes, 200)
	}
	return PriceAction{
		Price:       price,
		SMA20:       sma20,
		SMA50:       sma50,
		SMA200:      sma200,
		AboveSMA20:  price > sma20,
		AboveSMA50:  price > sma50,
		AboveSMA200: price > sma200,
	}
}

func (a *Analyzer) rsi(closes []float64) RSI {
	v := ta.RSI(closes, a.cfg.RSIPeriod)
	signal := SignalNeutral
	switch {
	case v < a.cfg.RSIOversold:
		signal = SignalOversold
	case v > a.cfg.RSIOverbought:
		signal = SignalOverbought
	}
	return RSI{Value: v, Signal: signal}
}

func macd(closes []float64) MACD {
	line, sig := ta.MACDSeries(closes, macdFast, macdSlow, macdSignal)
	m, s := line[len(line)-1], sig[len(sig)-1]
	out := MACD{MACD: m, Signal: s, Histogram: m - s}
	if !math.IsNaN(m) && !math.IsNaN(s) {
		out.Valid = true
		out.Bullish = m > s
	}
	return out
}

func (a *Analyzer) bollinger(closes []float64) Bollinger {
	mid, up, low := ta.Bollinger(closes, a.cfg.BBWindow, a.cfg.BBStdDev)
	price := closes[len(closes)-1]
	signal := SignalNeutral
	switch {
	case price < low:
		signal = SignalOversold
	case price > up:
		signal = SignalOverbought
	}
	return Bollinger{Upper: up, Middle: mid, Lower: low, Price: price, Signal: signal}
}

func (a *Analyzer) levels(highs, lows []float64, price float64) SupportResistance {
	resistance := ta.Highest(highs, levelWindow)
	support := ta.Lowest(lows, levelWindow)
	out := SupportResistance{Resistance: resistance, Support: support, Price: price}
	if support > 0 {
		out.NearSupport = (price-support)/support < a.cfg.NearLevelPct
	}
	if price > 0 {
		out.NearResistance = (resistance-price)/price < a.cfg.NearLevelPct
	}
	return out
}

func (a *Analyzer) volume(volumes []float64) Volume {
	current := volumes[len(volumes)-1]
	avg := ta.SMA(volumes, volumeWindow)
	ratio := 1.0
	if avg > 0 {
		ratio = current / avg
	}
	return Volume{
		Current:    current,
		Average:    avg,
		Ratio:      ratio,
		Increasing: current > avg*a.cfg.VolumeSurgeRatio,
	}
}

func (a *Analyzer) adx(highs, lows, closes []float64) ADX {
	v, plus, minus, ok := ta.ADX(highs, lows, closes, a.cfg.ADXPeriod)
	if !ok {
		return ADX{Signal: SignalInsufficientData}
	}
	signal := SignalWeakTrend
	if v > a.cfg.ADXTrendThreshold {
		signal = SignalStrongTrend
	}
	return ADX{Value: v, PlusDI: plus, MinusDI: minus, Signal: signal}
}

func obv(closes, volumes []float64) OBV {
	series := ta.OBVSeries(closes, volumes)
	v := series[len(series)-1]
	ma := ta.SMA(series, obvWindow)
	return OBV{Value: v, MA20: ma, Bullish: v > ma}
}

// Trend compares the 20- and 50-bar averages now and crossoverLookback bars
// ago. A cross between the two readings is reported as a crossover.
func Trend(closes []float64) string {
	n := len(closes)
	if n < TrendBars {
		return TrendInsufficientData
	}
	fast := ta.SMASeries(closes, 20)
	slow := ta.SMASeries(closes, 50)
	now, then := n-1, n-crossoverLookback

	switch {
	case fast[now] > slow[now] && fast[then] < slow[then]:
		return TrendBullishCrossover
	case fast[now] < slow[now] && fast[then] > slow[then]:
		return TrendBearishCrossover
	case fast[now] > slow[now]:
		return TrendBullish
	default:
		return TrendBearish
	}
}
