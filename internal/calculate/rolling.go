package calculate

import (
	"github.com/markcheno/go-talib"
)

// rollingMean is a simple moving average, available once period values exist
func rollingMean(values []float64, period int) []Value {
	out := make([]Value, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sma := talib.Sma(values, period)
	for i := period - 1; i < len(values); i++ {
		out[i] = Some(sma[i])
	}
	return out
}

// rollingMax is the highest value over the trailing window
func rollingMax(values []float64, period int) []Value {
	return rollingExtreme(values, period, talib.Max)
}

// rollingMin is the lowest value over the trailing window
func rollingMin(values []float64, period int) []Value {
	return rollingExtreme(values, period, talib.Min)
}

func rollingExtreme(values []float64, period int, fn func([]float64, int) []float64) []Value {
	out := make([]Value, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	// talib leaves single-bar windows unfilled
	if period == 1 {
		for i, v := range values {
			out[i] = Some(v)
		}
		return out
	}

	res := fn(values, period)
	for i := period - 1; i < len(values); i++ {
		out[i] = Some(res[i])
	}
	return out
}

// shiftForward moves every value n positions later; the first n positions become unavailable
// and values pushed past the end are dropped
func shiftForward(values []Value, n int) []Value {
	out := make([]Value, len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}
