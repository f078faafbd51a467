package analyze

import (
	"fmt"

	"github.com/Alias1177/ProfitForge/internal/calculate"
	"github.com/Alias1177/ProfitForge/models"
)

// BaselineScore is the neutral starting score
const BaselineScore = 50

// threshold maps a score predicate to a signal; the table is evaluated first match wins
type threshold struct {
	match  func(score int) bool
	signal models.Signal
}

var signalThresholds = []threshold{
	{func(s int) bool { return s >= 80 }, models.SignalStrongBuy},
	{func(s int) bool { return s >= 65 }, models.SignalBuy},
	{func(s int) bool { return s <= 20 }, models.SignalStrongSell},
	{func(s int) bool { return s <= 35 }, models.SignalSell},
}

// ClassifyScore turns a score into a signal
func ClassifyScore(score int) models.Signal {
	for _, t := range signalThresholds {
		if t.match(score) {
			return t.signal
		}
	}
	return models.SignalHold
}

// ScoreSnapshot applies the RSI, MACD and cloud rules to the latest indicator values.
// Rules whose inputs are unavailable abstain. The returned factors describe each rule that fired.
func ScoreSnapshot(close float64, snap calculate.Snapshot) (int, []string) {
	score := BaselineScore
	var factors []string

	// RSI extremes
	if rsi, ok := snap.RSI.Get(); ok {
		switch {
		case rsi < 30:
			score += 20
			factors = append(factors, fmt.Sprintf("RSI oversold (%.1f)", rsi))
		case rsi > 70:
			score -= 20
			factors = append(factors, fmt.Sprintf("RSI overbought (%.1f)", rsi))
		}
	}

	// MACD momentum
	macd, okM := snap.MACD.Get()
	signal, okS := snap.MACDSignal.Get()
	if okM && okS {
		switch {
		case macd > signal:
			score += 15
			factors = append(factors, "MACD above signal")
		case macd < signal:
			score -= 15
			factors = append(factors, "MACD below signal")
		}
	}

	// Price against the cloud
	spanA, okA := snap.SpanA.Get()
	spanB, okB := snap.SpanB.Get()
	if okA && okB {
		top, bottom := spanA, spanB
		if bottom > top {
			top, bottom = bottom, top
		}
		switch {
		case close > top:
			score += 15
			factors = append(factors, "Price above cloud")
		case close < bottom:
			score -= 15
			factors = append(factors, "Price below cloud")
		}
	}

	return score, factors
}
