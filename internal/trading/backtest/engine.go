package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alias1177/ProfitForge/internal/analyze"
	"github.com/Alias1177/ProfitForge/internal/trading/risk"
	"github.com/Alias1177/ProfitForge/models"
)

// DefaultOffset is the first bar index the replay starts at
const DefaultOffset = 60

// FillMode controls where an entry is filled once a bullish signal fires
type FillMode string

const (
	// FillSameBar enters at the last close the signal saw and checks exits on the same bar
	FillSameBar FillMode = "same_bar"
	// FillNextOpen enters at the open of the bar after the signal and checks exits from the following bar
	FillNextOpen FillMode = "next_open"
)

// OpenAtEnd controls what happens to a position still open when the series ends
type OpenAtEnd string

const (
	// ExcludeOpen leaves the position out of the statistics and reports it as unresolved
	ExcludeOpen OpenAtEnd = "exclude"
	// MarkToClose closes the position at the final close and counts it
	MarkToClose OpenAtEnd = "mark_to_close"
)

// Options configures a replay
type Options struct {
	Offset    int       `json:"offset"`
	Fill      FillMode  `json:"fill"`
	OpenAtEnd OpenAtEnd `json:"open_at_end"`
}

// DefaultOptions reproduces the classic replay: 60-bar offset, same-bar fills, open positions excluded
func DefaultOptions() Options {
	return Options{
		Offset:    DefaultOffset,
		Fill:      FillSameBar,
		OpenAtEnd: ExcludeOpen,
	}
}

// Validate rejects unknown modes and negative offsets
func (o Options) Validate() error {
	if o.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got %d", o.Offset)
	}
	switch o.Fill {
	case FillSameBar, FillNextOpen:
	default:
		return fmt.Errorf("unknown fill mode %q", o.Fill)
	}
	switch o.OpenAtEnd {
	case ExcludeOpen, MarkToClose:
	default:
		return fmt.Errorf("unknown open-at-end policy %q", o.OpenAtEnd)
	}
	return nil
}

// Result is the outcome of a replay
type Result struct {
	Stats  models.BacktestStats `json:"stats"`
	Trades []models.Trade       `json:"trades"`
	// Unresolved is the position left open at the end when it is excluded from Stats
	Unresolved *models.Trade `json:"unresolved,omitempty"`
}

// Simulate replays a series bar by bar. At bar i the signal sees only bars [0, i),
// at most one position is held, and completed trades are aggregated into statistics.
func Simulate(series models.Series, params models.Params, opts Options) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var (
		state  position = flat{}
		trades []models.Trade
	)

	for i := opts.Offset; i < len(series); i++ {
		bar := series[i]

		if _, ok := state.(flat); ok {
			next, err := enter(series.Prefix(i), bar, i, params, opts.Fill)
			if err != nil {
				return nil, err
			}
			state = next
		}

		switch s := state.(type) {
		case flat:
		case open:
			if i >= s.firstCheck && s.hit(bar.Close) {
				trades = append(trades, s.trade(i, bar))
				state = flat{}
			}
		}
	}

	result := &Result{}
	if s, ok := state.(open); ok && len(series) > 0 {
		last := len(series) - 1
		t := s.trade(last, series[last])
		switch opts.OpenAtEnd {
		case MarkToClose:
			trades = append(trades, t)
		default:
			result.Unresolved = &t
		}
	}

	result.Trades = trades
	result.Stats = CalculateStats(trades)
	return result, nil
}

// enter evaluates the signal on the visible prefix and opens a position when it is bullish
func enter(visible models.Series, bar models.Bar, i int, params models.Params, fill FillMode) (position, error) {
	a, err := analyze.Analyze(visible, params)
	if errors.Is(err, models.ErrInsufficientData) {
		return flat{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !a.Signal.IsBullish() {
		return flat{}, nil
	}

	if fill == FillNextOpen {
		return open{
			levels:     risk.DetermineLevels(bar.Open, a.Snapshot.ATR, a.Signal),
			entryIndex: i,
			entryTime:  bar.Timestamp,
			firstCheck: i + 1,
		}, nil
	}

	signalBar, _ := visible.Last()
	return open{
		levels:     a.Levels,
		entryIndex: i - 1,
		entryTime:  signalBar.Timestamp,
		firstCheck: i,
	}, nil
}

// CalculateStats aggregates completed trades. Zero trades yield all-zero statistics.
func CalculateStats(trades []models.Trade) models.BacktestStats {
	if len(trades) == 0 {
		return models.BacktestStats{}
	}

	wins := 0
	total := 0.0
	for _, t := range trades {
		if t.Gain > 0 {
			wins++
		}
		total += t.Gain
	}

	n := float64(len(trades))
	return models.BacktestStats{
		TotalTrades: len(trades),
		WinRate:     float64(wins) / n * 100,
		AvgPL:       total / n,
		TotalPL:     total,
	}
}

// Engine runs replays over history fetched from a market data provider
type Engine struct {
	provider models.MarketDataProvider
	params   models.Params
	opts     Options
}

// NewEngine creates a new backtesting engine
func NewEngine(provider models.MarketDataProvider, params models.Params, opts Options) *Engine {
	return &Engine{
		provider: provider,
		params:   params,
		opts:     opts,
	}
}

// Run fetches enough bars to cover the given number of days and replays them
func (e *Engine) Run(ctx context.Context, symbol, resolution string, days int) (*Result, error) {
	count := models.CandlesForDays(resolution, days)
	if minBars := e.opts.Offset + 1; count < minBars {
		count = minBars
	}

	series := e.provider.Fetch(ctx, symbol, resolution, count)
	if len(series) <= e.opts.Offset {
		return nil, fmt.Errorf("%w: got %d bars for %s %s, offset is %d",
			models.ErrInsufficientData, len(series), symbol, resolution, e.opts.Offset)
	}

	return Simulate(series, e.params, e.opts)
}
