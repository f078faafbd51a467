package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/ProfitForge/internal/calculate"
	"github.com/Alias1177/ProfitForge/models"
)

var (
	atrStopMultiplier = decimal.NewFromInt(2)

	longTarget1  = decimal.RequireFromString("1.03")
	longTarget2  = decimal.RequireFromString("1.06")
	shortTarget1 = decimal.RequireFromString("0.97")
	shortTarget2 = decimal.RequireFromString("0.94")
)

// DetermineLevels derives entry, stop-loss and take-profit levels from the latest close and ATR.
// Signals containing BUY get long levels, everything else short levels.
// A missing, zero or non-finite ATR collapses the stop onto the entry and marks the levels degenerate.
// A non-finite entry cannot be priced, so every level equals the entry.
func DetermineLevels(entry float64, atr calculate.Value, signal models.Signal) models.Levels {
	if !finite(entry) {
		return models.Levels{Entry: entry, StopLoss: entry, TakeProfit1: entry, TakeProfit2: entry, Degenerate: true}
	}

	atrValue, ok := atr.Get()
	if !ok || !finite(atrValue) {
		atrValue = 0
	}
	degenerate := atrValue == 0

	price := decimal.NewFromFloat(entry)
	stopDistance := decimal.NewFromFloat(atrValue).Mul(atrStopMultiplier)

	var stop, tp1, tp2 decimal.Decimal
	if signal.IsBullish() {
		stop = price.Sub(stopDistance)
		tp1 = price.Mul(longTarget1)
		tp2 = price.Mul(longTarget2)
	} else {
		stop = price.Add(stopDistance)
		tp1 = price.Mul(shortTarget1)
		tp2 = price.Mul(shortTarget2)
	}

	return models.Levels{
		Entry:       entry,
		StopLoss:    stop.InexactFloat64(),
		TakeProfit1: tp1.InexactFloat64(),
		TakeProfit2: tp2.InexactFloat64(),
		Degenerate:  degenerate,
	}
}

// RiskReward is the distance to the second target per unit of stop distance.
// Degenerate levels have no defined ratio and return 0.
func RiskReward(levels models.Levels) float64 {
	if !finite(levels.Entry) || !finite(levels.StopLoss) || !finite(levels.TakeProfit2) {
		return 0
	}
	risk := decimal.NewFromFloat(levels.Entry).Sub(decimal.NewFromFloat(levels.StopLoss)).Abs()
	if risk.IsZero() {
		return 0
	}
	reward := decimal.NewFromFloat(levels.TakeProfit2).Sub(decimal.NewFromFloat(levels.Entry)).Abs()
	return reward.Div(risk).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
