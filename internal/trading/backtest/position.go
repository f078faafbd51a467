package backtest

import (
	"time"

	"github.com/Alias1177/ProfitForge/models"
)

// position is the simulator state: exactly one of flat or open
type position interface {
	isPosition()
}

type flat struct{}

type open struct {
	levels     models.Levels
	entryIndex int
	entryTime  time.Time
	// firstCheck is the first bar whose close may trigger an exit
	firstCheck int
}

func (flat) isPosition() {}
func (open) isPosition() {}

func (o open) trade(exitIndex int, exit models.Bar) models.Trade {
	return models.Trade{
		EntryIndex: o.entryIndex,
		ExitIndex:  exitIndex,
		EntryTime:  o.entryTime,
		ExitTime:   exit.Timestamp,
		EntryPrice: o.levels.Entry,
		ExitPrice:  exit.Close,
		Gain:       exit.Close - o.levels.Entry,
	}
}

// hit reports whether a close crosses the stop-loss or the second target
func (o open) hit(close float64) bool {
	return close <= o.levels.StopLoss || close >= o.levels.TakeProfit2
}
