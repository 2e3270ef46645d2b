package types

import (
	"encoding/json"
	"math"
	"time"
)

// Bar is one daily OHLCV record. History slices are chronological ascending.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts the close series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high series from bars.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low series from bars.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume series from bars.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Statement is a financial statement keyed by line item ("Free Cash Flow",
// "Net Income", ...). Each row is most-recent-first; NaN marks a missing period.
type Statement map[string][]float64

// UnmarshalJSON maps JSON nulls inside a row to NaN.
func (s *Statement) UnmarshalJSON(b []byte) error {
	var raw map[string][]*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Statement, len(raw))
	for k, row := range raw {
		vals := make([]float64, len(row))
		for i, v := range row {
			if v == nil {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = *v
		}
		out[k] = vals
	}
	*s = out
	return nil
}

// Has reports whether the line item exists with at least one column.
func (s Statement) Has(item string) bool {
	return len(s[item]) > 0
}

// Head returns up to n of the most recent periods of a line item with missing
// periods dropped.
func (s Statement) Head(item string, n int) []float64 {
	row := s[item]
	if len(row) > n {
		row = row[:n]
	}
	out := make([]float64, 0, len(row))
	for _, v := range row {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Latest returns the most recent period of a line item, or 0 when it is
// absent or missing.
func (s Statement) Latest(item string) float64 {
	row := s[item]
	if len(row) == 0 || math.IsNaN(row[0]) || math.IsInf(row[0], 0) {
		return 0
	}
	return row[0]
}

// Financials groups the statements a valuation may read.
type Financials struct {
	CashFlow        Statement `json:"cash_flow,omitempty"`
	IncomeStatement Statement `json:"income_statement,omitempty"`
}

// Sentiment is the aggregate market mood for a ticker. Score runs from -100
// (all bearish) to +100 (all bullish).
type Sentiment struct {
	Score   float64 `json:"sentiment_score"`
	Bullish int     `json:"bullish"`
	Bearish int     `json:"bearish"`
	Neutral int     `json:"neutral"`

	Overall     string  `json:"overall,omitempty"`
	AvgPolarity float64 `json:"avg_polarity,omitempty"`
	DataQuality string  `json:"data_quality,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// Mention is one labelled headline or post about a ticker.
type Mention struct {
	Title    string  `json:"title"`
	Source   string  `json:"source,omitempty"`
	Label    string  `json:"sentiment"`
	Polarity float64 `json:"polarity,omitempty"`
}

// CompanySnapshot is the normalized input every calculator consumes.
type CompanySnapshot struct {
	Ticker       string        `json:"ticker"`
	Info         Info          `json:"info"`
	Financials   Financials    `json:"financials"`
	PriceHistory []Bar         `json:"price_history"`
	Sentiment    *Sentiment    `json:"sentiment,omitempty"`
	Mentions     []Mention     `json:"mentions,omitempty"`
	Options      []OptionChain `json:"options,omitempty"`
}

// OptionContract is one strike of an option chain.
type OptionContract struct {
	Strike            float64 `json:"strike"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

// OptionChain holds the calls and puts of one expiration (YYYY-MM-DD).
type OptionChain struct {
	Expiration string           `json:"expiration"`
	Calls      []OptionContract `json:"calls,omitempty"`
	Puts       []OptionContract `json:"puts,omitempty"`
}
