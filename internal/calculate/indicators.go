package calculate

import (
	"github.com/Alias1177/ProfitForge/models"
)

// Frame holds every indicator aligned one-to-one with the input bars
type Frame struct {
	RSI        []Value
	MACD       []Value
	MACDSignal []Value
	ATR        []Value
	Conversion []Value
	Base       []Value
	SpanA      []Value
	SpanB      []Value
}

// Snapshot is the indicator frame at a single bar
type Snapshot struct {
	RSI        Value `json:"rsi"`
	MACD       Value `json:"macd"`
	MACDSignal Value `json:"macd_signal"`
	ATR        Value `json:"atr"`
	Conversion Value `json:"conversion_line"`
	Base       Value `json:"base_line"`
	SpanA      Value `json:"span_a"`
	SpanB      Value `json:"span_b"`
}

// CalculateAllIndicators computes the full indicator frame for a series.
// The input series is never modified.
func CalculateAllIndicators(series models.Series, params models.Params) Frame {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	macd, signal := MACD(closes, params.MACDFast, params.MACDSlow, params.MACDSignal)
	cloud := Ichimoku(highs, lows, params.IchimokuConversion, params.IchimokuBase, params.IchimokuSpan)

	return Frame{
		RSI:        RSI(closes, params.RSIPeriod),
		MACD:       macd,
		MACDSignal: signal,
		ATR:        ATR(highs, lows, closes, params.ATRPeriod),
		Conversion: cloud.Conversion,
		Base:       cloud.Base,
		SpanA:      cloud.SpanA,
		SpanB:      cloud.SpanB,
	}
}

// Len returns the number of bars covered by the frame
func (f Frame) Len() int {
	return len(f.RSI)
}

// At returns the snapshot at bar i. Out-of-range positions are entirely unavailable.
func (f Frame) At(i int) Snapshot {
	if i < 0 || i >= f.Len() {
		return Snapshot{}
	}
	return Snapshot{
		RSI:        f.RSI[i],
		MACD:       f.MACD[i],
		MACDSignal: f.MACDSignal[i],
		ATR:        f.ATR[i],
		Conversion: f.Conversion[i],
		Base:       f.Base[i],
		SpanA:      f.SpanA[i],
		SpanB:      f.SpanB[i],
	}
}

// Latest returns the snapshot at the last bar
func (f Frame) Latest() Snapshot {
	return f.At(f.Len() - 1)
}
