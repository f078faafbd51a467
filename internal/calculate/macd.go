package calculate

// EMA is the recursive exponential moving average with alpha = 2/(span+1),
// seeded with the first value. It is available from the first bar.
func EMA(values []float64, span int) []Value {
	out := make([]Value, len(values))
	if span <= 0 {
		return out
	}
	for i, v := range emaFromPrices(values, span) {
		out[i] = Some(v)
	}
	return out
}

func emaFromPrices(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2 / (float64(span) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA of close) and its signal line
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine []Value) {
	macd = make([]Value, len(closes))
	signalLine = make([]Value, len(closes))
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return macd, signalLine
	}

	fastEMA := emaFromPrices(closes, fast)
	slowEMA := emaFromPrices(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
		macd[i] = Some(line[i])
	}

	for i, v := range emaFromPrices(line, signal) {
		signalLine[i] = Some(v)
	}
	return macd, signalLine
}
