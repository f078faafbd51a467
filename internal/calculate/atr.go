package calculate

import "math"

// TrueRange returns the per-bar true range. The first bar has no previous close
// and degrades to its high-low range.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := minLen(highs, lows, closes)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		r := math.Abs(highs[i] - lows[i])
		if i > 0 {
			prevClose := closes[i-1]
			r = math.Max(r, math.Abs(highs[i]-prevClose))
			r = math.Max(r, math.Abs(lows[i]-prevClose))
		}
		tr[i] = r
	}
	return tr
}

// ATR is the simple rolling mean of true range over period bars
func ATR(highs, lows, closes []float64, period int) []Value {
	out := rollingMean(TrueRange(highs, lows, closes), period)
	for i, v := range out {
		// running-sum residue can dip a hair below zero on flat stretches
		if x, ok := v.Get(); ok && x < 0 {
			out[i] = Some(0)
		}
	}
	return out
}

func minLen(series ...[]float64) int {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
