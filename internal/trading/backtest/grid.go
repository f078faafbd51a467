package backtest

import (
	"context"
	"runtime"
	"sync"

	"github.com/Alias1177/ProfitForge/models"
)

// DefaultGrid is the parameter grid: ATR and RSI periods 10..20 step 2,
// MACD fast {8,10,12} and slow {24,26,28}, signal 9, Ichimoku 9/26/52
func DefaultGrid() []models.Params {
	var grid []models.Params
	for atr := 10; atr <= 20; atr += 2 {
		for rsi := 10; rsi <= 20; rsi += 2 {
			for _, fast := range []int{8, 10, 12} {
				for _, slow := range []int{24, 26, 28} {
					grid = append(grid, models.Params{
						ATRPeriod:          atr,
						RSIPeriod:          rsi,
						MACDFast:           fast,
						MACDSlow:           slow,
						MACDSignal:         9,
						IchimokuConversion: 9,
						IchimokuBase:       26,
						IchimokuSpan:       52,
					})
				}
			}
		}
	}
	return grid
}

// GridResult is the evaluation of one parameter set
type GridResult struct {
	Params models.Params        `json:"params"`
	Stats  models.BacktestStats `json:"stats"`
	Err    error                `json:"-"`
}

// EvaluateGrid replays the series once per parameter set on a pool of workers.
// Results keep the grid order; a parameter set that fails carries its error.
func EvaluateGrid(ctx context.Context, series models.Series, grid []models.Params, opts Options, workers int) ([]GridResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]GridResult, len(grid))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := Simulate(series, grid[idx], opts)
				results[idx] = GridResult{Params: grid[idx], Err: err}
				if err == nil {
					results[idx].Stats = res.Stats
				}
			}
		}()
	}

feed:
	for idx := range grid {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
