package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInsufficientData is returned when a series is shorter than the warm-up of a parameter set
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidParams is returned for parameter sets that cannot produce meaningful output
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrNonFinitePrice is returned when the bar a signal is priced from carries NaN or Inf
	ErrNonFinitePrice = errors.New("non-finite price")
)

// Bar represents a single OHLCV price bar
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Series is an ordered sequence of bars, oldest first
type Series []Bar

// Finite reports whether every price field of the bar is a real number
func (b Bar) Finite() bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NormalizeSeries orders bars oldest first and drops any bar whose timestamp
// does not strictly increase, keeping the first occurrence.
// Bars with a NaN or infinite price are dropped before ordering.
func NormalizeSeries(bars []Bar) Series {
	sorted := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if b.Finite() {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make(Series, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && !b.Timestamp.After(out[n-1].Timestamp) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Closes returns the close prices of the series
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices of the series
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices of the series
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Prefix returns a view of the first n bars. The view's capacity is capped at n,
// so appending to it can never expose or overwrite later bars.
func (s Series) Prefix(n int) Series {
	if n > len(s) {
		n = len(s)
	}
	if n < 0 {
		n = 0
	}
	return s[:n:n]
}

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// Params holds the indicator parameter set
type Params struct {
	ATRPeriod          int `json:"atr"`
	RSIPeriod          int `json:"rsi"`
	MACDFast           int `json:"macd_fast"`
	MACDSlow           int `json:"macd_slow"`
	MACDSignal         int `json:"macd_signal"`
	IchimokuConversion int `json:"ichimoku_conv"`
	IchimokuBase       int `json:"ichimoku_base"`
	IchimokuSpan       int `json:"ichimoku_span"`
}

// DefaultParams returns the first entry of the default parameter grid
func DefaultParams() Params {
	return Params{
		ATRPeriod:          10,
		RSIPeriod:          10,
		MACDFast:           8,
		MACDSlow:           24,
		MACDSignal:         9,
		IchimokuConversion: 9,
		IchimokuBase:       26,
		IchimokuSpan:       52,
	}
}

// Validate rejects parameter sets that violate the period ordering constraints
func (p Params) Validate() error {
	periods := []struct {
		name  string
		value int
	}{
		{"atr", p.ATRPeriod},
		{"rsi", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"ichimoku_conv", p.IchimokuConversion},
		{"ichimoku_base", p.IchimokuBase},
		{"ichimoku_span", p.IchimokuSpan},
	}
	for _, period := range periods {
		if period.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParams, period.name, period.value)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("%w: macd_fast (%d) must be < macd_slow (%d)", ErrInvalidParams, p.MACDFast, p.MACDSlow)
	}
	if p.IchimokuConversion >= p.IchimokuBase || p.IchimokuBase >= p.IchimokuSpan {
		return fmt.Errorf("%w: ichimoku windows must increase (%d < %d < %d)",
			ErrInvalidParams, p.IchimokuConversion, p.IchimokuBase, p.IchimokuSpan)
	}
	return nil
}

// WarmupBars is the minimum series length needed before a signal can be generated
func (p Params) WarmupBars() int {
	n := p.ATRPeriod
	if p.RSIPeriod > n {
		n = p.RSIPeriod
	}
	if v := p.MACDSlow + p.MACDSignal; v > n {
		n = v
	}
	if v := p.IchimokuSpan + p.IchimokuBase; v > n {
		n = v
	}
	return n
}

// Signal is a discrete trading recommendation
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalHold       Signal = "HOLD"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"

	weakPrefix = "WEAK_"
)

// IsBullish reports whether the signal name contains BUY
func (s Signal) IsBullish() bool {
	return strings.Contains(string(s), "BUY")
}

// IsBearish reports whether the signal name contains SELL
func (s Signal) IsBearish() bool {
	return strings.Contains(string(s), "SELL")
}

// IsDirectional reports whether the signal is bullish or bearish
func (s Signal) IsDirectional() bool {
	return s.IsBullish() || s.IsBearish()
}

// IsWeak reports whether the signal was wrapped as unconfirmed
func (s Signal) IsWeak() bool {
	return strings.HasPrefix(string(s), weakPrefix)
}

// Weak wraps a directional signal as unconfirmed. Non-directional signals become HOLD.
func (s Signal) Weak() Signal {
	if !s.IsDirectional() {
		return SignalHold
	}
	if s.IsWeak() {
		return s
	}
	return Signal(weakPrefix + string(s))
}

// Label renders the signal for humans, e.g. "STRONG BUY"
func (s Signal) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Levels holds the entry and risk levels derived from the latest close and ATR
type Levels struct {
	Entry       float64 `json:"entry"`
	StopLoss    float64 `json:"sl"`
	TakeProfit1 float64 `json:"tp1"`
	TakeProfit2 float64 `json:"tp2"`
	// Degenerate is set when ATR was unavailable or zero and the stop equals the entry
	Degenerate bool `json:"degenerate,omitempty"`
}

// SignalResult is the output of the signal generator
type SignalResult struct {
	Signal Signal `json:"signal"`
	Score  int    `json:"score"`
	Levels Levels `json:"levels"`
}

// Confirmation is the reconciled multi-timeframe result.
// Score and Levels always come from the entry resolution.
type Confirmation struct {
	Final  Signal `json:"final_signal"`
	Score  int    `json:"score"`
	Levels Levels `json:"levels"`
	Entry  Signal `json:"entry_signal"`
	Mid    Signal `json:"mid_signal"`
	High   Signal `json:"high_signal"`
}

// Trade is one completed (or still open) simulated position
type Trade struct {
	EntryIndex int       `json:"entry_index"`
	ExitIndex  int       `json:"exit_index"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Gain       float64   `json:"gain"`
}

// BacktestStats aggregates completed trades
type BacktestStats struct {
	TotalTrades int     `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
	AvgPL       float64 `json:"avg_pl"`
	TotalPL     float64 `json:"total_pl"`
}

// Subscription routes alerts for a symbol to a Telegram chat
type Subscription struct {
	ChatID      int64     `json:"chat_id"`
	Symbol      string    `json:"symbol"`
	Resolution  string    `json:"resolution"`
	CreatedAt   time.Time `json:"created_at"`
	LastSignal  Signal    `json:"last_signal,omitempty"`
	LastAlerted time.Time `json:"last_alerted,omitempty"`
}
