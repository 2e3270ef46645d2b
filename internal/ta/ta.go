package ta

import "math"

// Scalar indicators evaluate at the last element and return NaN when the input
// is too short. Series indicators return a slice aligned with the input, NaN
// where the indicator is not yet defined.

func SMA(closes []float64, n int) float64 {
	if len(closes) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

func SMASeries(vals []float64, n int) []float64 {
	out := nanSlice(len(vals))
	if n <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMASeries is an exponential moving average with alpha = 2/(span+1), seeded
// with the first defined value. Leading NaNs are skipped and output stays NaN
// until minPeriods defined values have been seen.
func EMASeries(vals []float64, span, minPeriods int) []float64 {
	if span <= 0 {
		return nanSlice(len(vals))
	}
	return ewm(vals, 2.0/(float64(span)+1), minPeriods)
}

func ewm(vals []float64, alpha float64, minPeriods int) []float64 {
	out := nanSlice(len(vals))
	avg, seen := 0.0, 0
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if seen == 0 {
			avg = v
		} else {
			avg = (1-alpha)*avg + alpha*v
		}
		seen++
		if seen >= minPeriods {
			out[i] = avg
		}
	}
	return out
}

// RSISeries uses Wilder smoothing (alpha = 1/period) of gains and losses.
// A window with no losses reads 100.
func RSISeries(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < 2 {
		return out
	}
	gains := nanSlice(len(closes))
	losses := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	alpha := 1.0 / float64(period)
	up := ewm(gains, alpha, period)
	down := ewm(losses, alpha, period)
	for i := range closes {
		if math.IsNaN(up[i]) || math.IsNaN(down[i]) {
			continue
		}
		if down[i] == 0 {
			out[i] = 100
			continue
		}
		rs := up[i] / down[i]
		out[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return out
}

func RSI(closes []float64, period int) float64 {
	return last(RSISeries(closes, period))
}

// MACDSeries returns the MACD line (fast EMA - slow EMA) and its signal EMA.
func MACDSeries(closes []float64, fast, slow, signal int) (macd, sig []float64) {
	f := EMASeries(closes, fast, fast)
	s := EMASeries(closes, slow, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = f[i] - s[i]
	}
	sig = EMASeries(macd, signal, signal)
	return macd, sig
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	sd := StdDev(closes, n)
	up = mid + k*sd
	low = mid - k*sd
	return
}

func trueRange(highs, lows, closes []float64, i int) float64 {
	tr1 := highs[i] - lows[i]
	tr2 := math.Abs(highs[i] - closes[i-1])
	tr3 := math.Abs(lows[i] - closes[i-1])
	return math.Max(tr1, math.Max(tr2, tr3))
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	n := period
	if n <= 0 || len(closes) < n+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += trueRange(highs, lows, closes, i)
	}
	return sum / float64(n)
}

// ADX is Wilder's average directional index with the +DI/-DI lines. It needs
// 2*period bars; ok is false when history is shorter.
func ADX(highs, lows, closes []float64, period int) (adx, plusDI, minusDI float64, ok bool) {
	n := len(closes)
	if period <= 0 || len(highs) != n || len(lows) != n || n < 2*period {
		return 0, 0, 0, false
	}

	var trS, plusS, minusS float64
	dx := make([]float64, 0, n)
	for i := 1; i < n; i++ {
		tr := trueRange(highs, lows, closes, i)
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		pdm, mdm := 0.0, 0.0
		if upMove > downMove && upMove > 0 {
			pdm = upMove
		}
		if downMove > upMove && downMove > 0 {
			mdm = downMove
		}

		if i <= period {
			trS += tr
			plusS += pdm
			minusS += mdm
			if i < period {
				continue
			}
		} else {
			p := float64(period)
			trS = trS - trS/p + tr
			plusS = plusS - plusS/p + pdm
			minusS = minusS - minusS/p + mdm
		}

		plusDI, minusDI = 0, 0
		if trS > 0 {
			plusDI = 100 * plusS / trS
			minusDI = 100 * minusS / trS
		}
		d := 0.0
		if sum := plusDI + minusDI; sum > 0 {
			d = 100 * math.Abs(plusDI-minusDI) / sum
		}
		dx = append(dx, d)
	}

	for i, d := range dx {
		switch {
		case i < period-1:
			adx += d
		case i == period-1:
			adx = (adx + d) / float64(period)
		default:
			adx = (adx*float64(period-1) + d) / float64(period)
		}
	}
	return adx, plusDI, minusDI, true
}

// OBVSeries is the running sum of volume, signed negative on a close below
// the previous one. The first bar and unchanged closes count as positive.
func OBVSeries(closes, volumes []float64) []float64 {
	if len(volumes) != len(closes) {
		return nanSlice(len(closes))
	}
	out := make([]float64, len(closes))
	total := 0.0
	for i := range closes {
		if i > 0 && closes[i] < closes[i-1] {
			total -= volumes[i]
		} else {
			total += volumes[i]
		}
		out[i] = total
	}
	return out
}

// Highest is the maximum of the last n values.
func Highest(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := math.Inf(-1)
	for _, v := range vals[len(vals)-n:] {
		m = math.Max(m, v)
	}
	return m
}

// Lowest is the minimum of the last n values.
func Lowest(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := math.Inf(1)
	for _, v := range vals[len(vals)-n:] {
		m = math.Min(m, v)
	}
	return m
}

// Returns are simple period-over-period changes; the result is one shorter
// than the input.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = closes[i]/closes[i-1] - 1
	}
	return out
}

// PctReturn is the percentage change from closes[len-lookback] to the last
// close, 0 when the series is not longer than lookback.
func PctReturn(closes []float64, lookback int) float64 {
	n := len(closes)
	if lookback <= 0 || n <= lookback || closes[n-lookback] == 0 {
		return 0
	}
	return (closes[n-1]/closes[n-lookback] - 1) * 100
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
