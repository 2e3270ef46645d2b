package technical

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"stock-analyzer/internal/types"
)

const (
	PatternHeadAndShoulders = "head_and_shoulders"
	PatternDoubleBottom     = "double_bottom"
	PatternCupAndHandle     = "cup_and_handle"

	SignalBullish = "bullish"
	SignalBearish = "bearish"
)

const (
	patternMinBars      = 50
	headShouldersWindow = 60
	doubleBottomWindow  = 40
	cupWindow           = 60
	handleBars          = 10

	shoulderTolerance = 0.05
	troughTolerance   = 0.03
	reboundMin        = 1.05
	cupDepthMin       = 1.10
	handleFloor       = 1.05
)

type Pattern struct {
	Name   string `json:"pattern"`
	Signal string `json:"signal"`
}

// DetectPatterns scans the tail of the history for head-and-shoulders,
// double-bottom and cup-and-handle shapes. Fewer than 50 bars yields none.
func DetectPatterns(bars []types.Bar) []Pattern {
	patterns := []Pattern{}
	if len(bars) < patternMinBars {
		return patterns
	}
	if headAndShoulders(types.Highs(bars)) {
		patterns = append(patterns, Pattern{Name: PatternHeadAndShoulders, Signal: SignalBearish})
	}
	if doubleBottom(types.Lows(bars)) {
		patterns = append(patterns, Pattern{Name: PatternDoubleBottom, Signal: SignalBullish})
	}
	if cupAndHandle(types.Closes(bars)) {
		patterns = append(patterns, Pattern{Name: PatternCupAndHandle, Signal: SignalBullish})
	}
	return patterns
}

type extremum struct {
	idx int
	val float64
}

// localPeaks finds points strictly above both neighbours.
func localPeaks(vals []float64) []extremum {
	var out []extremum
	for i := 1; i < len(vals)-1; i++ {
		if vals[i] > vals[i-1] && vals[i] > vals[i+1] {
			out = append(out, extremum{i, vals[i]})
		}
	}
	return out
}

// localTroughs finds points strictly below both neighbours.
func localTroughs(vals []float64) []extremum {
	var out []extremum
	for i := 1; i < len(vals)-1; i++ {
		if vals[i] < vals[i-1] && vals[i] < vals[i+1] {
			out = append(out, extremum{i, vals[i]})
		}
	}
	return out
}

// headAndShoulders needs the highest peak strictly inside the peak list with
// its two neighbouring peaks within 5% of each other.
func headAndShoulders(highs []float64) bool {
	if len(highs) < headShouldersWindow {
		return false
	}
	peaks := localPeaks(highs[len(highs)-headShouldersWindow:])
	if len(peaks) < 3 {
		return false
	}
	head := 0
	for i, p := range peaks {
		if p.val > peaks[head].val {
			head = i
		}
	}
	if head == 0 || head == len(peaks)-1 {
		return false
	}
	left, right := peaks[head-1].val, peaks[head+1].val
	return math.Abs(left-right)/left < shoulderTolerance
}

// doubleBottom looks for adjacent troughs within 3% of each other with a
// rebound of at least 5% between them.
func doubleBottom(lows []float64) bool {
	if len(lows) < doubleBottomWindow {
		return false
	}
	window := lows[len(lows)-doubleBottomWindow:]
	troughs := localTroughs(window)
	for i := 0; i+1 < len(troughs); i++ {
		a, b := troughs[i], troughs[i+1]
		if math.Abs(a.val-b.val)/a.val >= troughTolerance {
			continue
		}
		if floats.Max(window[a.idx:b.idx]) > a.val*reboundMin {
			return true
		}
	}
	return false
}

// cupAndHandle splits the last 60 closes into a left rim (first quarter), a
// bottom (middle half) and a right rim, followed by a 10-bar handle that stays
// under the right rim and clear of the bottom.
func cupAndHandle(closes []float64) bool {
	if len(closes) < cupWindow {
		return false
	}
	p := closes[len(closes)-cupWindow:]
	mid := len(p) / 2
	quarter := mid / 2

	leftHigh := floats.Max(p[:quarter])
	bottom := floats.Min(p[quarter : mid+quarter])
	rightHigh := floats.Max(p[mid+quarter : len(p)-handleBars])
	handle := p[len(p)-handleBars:]

	if leftHigh <= bottom*cupDepthMin || rightHigh <= bottom*cupDepthMin {
		return false
	}
	return floats.Max(handle) < rightHigh && floats.Min(handle) > bottom*handleFloor
}
