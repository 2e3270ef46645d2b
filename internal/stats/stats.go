package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Summary holds the aggregates reported for a simulated distribution.
type Summary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes mean, median, population standard deviation and range.
// It returns the zero Summary for empty input.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean, variance := stat.PopMeanVariance(values, nil)
	sorted := Sorted(values)
	return Summary{
		Mean:   mean,
		Median: PercentileSorted(sorted, 50),
		Std:    math.Sqrt(variance),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks.
func Percentile(values []float64, p float64) float64 {
	return PercentileSorted(Sorted(values), p)
}

// PercentileSorted is Percentile for input already sorted ascending.
// gonum's stat.Quantile has no closest-rank interpolation mode, hence this.
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := Clamp(p, 0, 100) / 100 * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Median of values; NaN for empty input.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Mean of values; 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// SampleStdDev is the n-1 standard deviation; NaN for fewer than two values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

// DropNaN returns values without NaN entries.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
