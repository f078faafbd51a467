package calculate

// Cloud holds the Ichimoku components aligned with the input bars
type Cloud struct {
	Conversion []Value
	Base       []Value
	SpanA      []Value
	SpanB      []Value
}

// Ichimoku computes the conversion and base lines and the two leading spans.
// Both spans are projected base bars forward; projections past the series end are dropped.
func Ichimoku(highs, lows []float64, conversion, base, span int) Cloud {
	n := minLen(highs, lows)
	highs, lows = highs[:n], lows[:n]

	conv := midpoint(highs, lows, conversion)
	baseLine := midpoint(highs, lows, base)

	spanA := make([]Value, n)
	for i := 0; i < n; i++ {
		c, okC := conv[i].Get()
		b, okB := baseLine[i].Get()
		if okC && okB {
			spanA[i] = Some((c + b) / 2)
		}
	}

	shift := base
	if shift < 0 {
		shift = 0
	}

	return Cloud{
		Conversion: conv,
		Base:       baseLine,
		SpanA:      shiftForward(spanA, shift),
		SpanB:      shiftForward(midpoint(highs, lows, span), shift),
	}
}

// midpoint is (highest high + lowest low) / 2 over a trailing window
func midpoint(highs, lows []float64, period int) []Value {
	hi := rollingMax(highs, period)
	lo := rollingMin(lows, period)

	out := make([]Value, len(hi))
	for i := range hi {
		h, okH := hi[i].Get()
		l, okL := lo[i].Get()
		if okH && okL {
			out[i] = Some((h + l) / 2)
		}
	}
	return out
}
