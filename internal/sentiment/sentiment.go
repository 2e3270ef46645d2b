// Package sentiment folds labelled mentions into the aggregate mood the
// buy-opportunity scorer reads.
package sentiment

import (
	"strings"

	"stock-analyzer/internal/types"
)

// Labels accepted on a mention. Bullish and bearish are synonyms.
const (
	Positive = "positive"
	Negative = "negative"
	Neutral  = "neutral"
)

// Overall moods.
const (
	OverallPositive = "POSITIVE"
	OverallNegative = "NEGATIVE"
	OverallMixed    = "MIXED"
	OverallNeutral  = "NEUTRAL"
)

// Data quality by mention count.
const (
	QualityHigh    = "high"
	QualityMedium  = "medium"
	QualityLow     = "low"
	QualityVeryLow = "very_low"
	QualityNone    = "none"
)

func normalize(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case Positive, "bullish", "bull":
		return Positive
	case Negative, "bearish", "bear":
		return Negative
	default:
		return Neutral
	}
}

// Aggregate scores mentions as positive share minus negative share, in
// percent. No mentions yield a neutral zero score with quality "none".
func Aggregate(mentions []types.Mention) types.Sentiment {
	if len(mentions) == 0 {
		return types.Sentiment{Overall: OverallNeutral, DataQuality: QualityNone}
	}

	var s types.Sentiment
	polarity := 0.0
	for _, m := range mentions {
		switch normalize(m.Label) {
		case Positive:
			s.Bullish++
		case Negative:
			s.Bearish++
		default:
			s.Neutral++
		}
		polarity += m.Polarity
	}

	total := float64(len(mentions))
	s.Score = float64(s.Bullish-s.Bearish) / total * 100
	s.AvgPolarity = polarity / total
	s.Overall = overall(s.Bullish, s.Bearish)
	s.DataQuality = quality(len(mentions))
	s.Confidence = confidence(len(mentions), s.Bullish, s.Bearish, s.Neutral)
	return s
}

// overall needs a two-to-one majority for a directional call.
func overall(pos, neg int) string {
	switch {
	case pos > neg*2:
		return OverallPositive
	case neg > pos*2:
		return OverallNegative
	case pos > 0 && neg > 0:
		return OverallMixed
	default:
		return OverallNeutral
	}
}

func quality(n int) string {
	switch {
	case n >= 50:
		return QualityHigh
	case n >= 20:
		return QualityMedium
	case n >= 5:
		return QualityLow
	default:
		return QualityVeryLow
	}
}

// confidence grows with the mention count and shrinks with disagreement.
func confidence(n, pos, neg, neu int) float64 {
	var c float64
	switch {
	case n >= 10:
		c = 0.9
	case n >= 5:
		c = 0.7
	case n >= 3:
		c = 0.5
	default:
		c = 0.3
	}
	return c * float64(max(pos, neg, neu)) / float64(n)
}
