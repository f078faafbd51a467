package calculate

import "math"

// RSI computes the relative strength index of a close series.
// Gains and losses are smoothed with an adjusted exponential average (alpha = 1/period)
// and a value is produced once period price changes have been observed.
func RSI(closes []float64, period int) []Value {
	out := make([]Value, len(closes))
	if period <= 0 || len(closes) < 2 {
		return out
	}

	decay := 1 - 1/float64(period)

	// Running numerators share one weight sum since both see the same observations
	var gainSum, lossSum, weight float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		gainSum = gain + decay*gainSum
		lossSum = loss + decay*lossSum
		weight = 1 + decay*weight

		if i < period {
			continue
		}

		avgGain := gainSum / weight
		avgLoss := lossSum / weight
		if avgLoss == 0 {
			out[i] = Some(100)
			continue
		}

		rsi := 100 - 100/(1+avgGain/avgLoss)
		if math.IsNaN(rsi) {
			continue
		}
		out[i] = Some(rsi)
	}

	return out
}
