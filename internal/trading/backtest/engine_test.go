package backtest

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/Alias1177/ProfitForge/models"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seriesFromCloses builds bars one unit wide around each close, opening at the previous close
func seriesFromCloses(closes []float64) models.Series {
	series := make(models.Series, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		series[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      open,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
		}
	}
	return series
}

// bounceSeries declines by 1 per bar, jumps up at bar 100 and then resumes the decline.
// The jump is the first bar where RSI is oversold while MACD crosses above its signal,
// so the first BUY is visible from bar 101 with entry 203 and a 199.8 stop (ATR 1.6).
func bounceSeries(n int) models.Series {
	closes := make([]float64, n)
	for i := range closes {
		switch {
		case i < 100:
			closes[i] = 300 - float64(i)
		default:
			closes[i] = 203 - float64(i-100)
		}
	}
	return seriesFromCloses(closes)
}

func fallingSeries(n int) models.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 300 - float64(i)*0.5
	}
	return seriesFromCloses(closes)
}

func randomWalk(rng *rand.Rand, n int) models.Series {
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price = math.Max(5, price+rng.NormFloat64()*1.5)
		closes[i] = price
	}
	return seriesFromCloses(closes)
}

func TestCalculateStats(t *testing.T) {
	if got := CalculateStats(nil); got != (models.BacktestStats{}) {
		t.Fatalf("empty stats = %+v, want zeros", got)
	}

	trades := []models.Trade{{Gain: 2}, {Gain: -1}, {Gain: -1}, {Gain: 4}}
	got := CalculateStats(trades)
	want := models.BacktestStats{TotalTrades: 4, WinRate: 50, AvgPL: 1, TotalPL: 4}
	if got != want {
		t.Errorf("CalculateStats = %+v, want %+v", got, want)
	}
}

func TestSimulate_NoEntries(t *testing.T) {
	res, err := Simulate(fallingSeries(200), models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats != (models.BacktestStats{}) {
		t.Errorf("stats = %+v, want all zeros", res.Stats)
	}
	if len(res.Trades) != 0 || res.Unresolved != nil {
		t.Errorf("unexpected trades %+v / %+v", res.Trades, res.Unresolved)
	}
}

func TestSimulate_ShorterThanOffset(t *testing.T) {
	res, err := Simulate(fallingSeries(30), models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats != (models.BacktestStats{}) {
		t.Errorf("stats = %+v, want all zeros", res.Stats)
	}
}

func TestSimulate_SameBarFill(t *testing.T) {
	res, err := Simulate(bounceSeries(130), models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}

	first := res.Trades[0]
	if first.EntryIndex != 100 || first.ExitIndex != 104 {
		t.Errorf("first trade spans %d..%d, want 100..104", first.EntryIndex, first.ExitIndex)
	}
	if first.EntryPrice != 203 || first.ExitPrice != 199 || first.Gain != -4 {
		t.Errorf("first trade = %+v", first)
	}
}

func TestSimulate_NextOpenFill(t *testing.T) {
	opts := DefaultOptions()
	opts.Fill = FillNextOpen

	res, err := Simulate(bounceSeries(130), models.DefaultParams(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) == 0 {
		t.Fatal("expected at least one trade")
	}

	first := res.Trades[0]
	if first.EntryIndex != 101 || first.ExitIndex != 104 {
		t.Errorf("first trade spans %d..%d, want 101..104", first.EntryIndex, first.ExitIndex)
	}
	if first.EntryPrice != 203 {
		t.Errorf("entry = %v, want the open of bar 101", first.EntryPrice)
	}
}

func TestSimulate_OpenAtEnd(t *testing.T) {
	// entered at bar 101, the stop is never reached before the series ends
	series := bounceSeries(103)

	excluded, err := Simulate(series, models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if excluded.Stats != (models.BacktestStats{}) {
		t.Errorf("excluded stats = %+v, want zeros", excluded.Stats)
	}
	if excluded.Unresolved == nil || excluded.Unresolved.Gain != -2 {
		t.Fatalf("unresolved = %+v, want open position marked at -2", excluded.Unresolved)
	}

	opts := DefaultOptions()
	opts.OpenAtEnd = MarkToClose
	marked, err := Simulate(series, models.DefaultParams(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if marked.Unresolved != nil {
		t.Errorf("mark-to-close should not leave an unresolved position")
	}
	want := models.BacktestStats{TotalTrades: 1, WinRate: 0, AvgPL: -2, TotalPL: -2}
	if marked.Stats != want {
		t.Errorf("marked stats = %+v, want %+v", marked.Stats, want)
	}
}

func TestSimulate_NoLookahead(t *testing.T) {
	series := bounceSeries(130)
	base, err := Simulate(series, models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	// rewriting the future must not change a trade that closed before it
	altered := make(models.Series, len(series))
	copy(altered, series)
	for i := 105; i < len(altered); i++ {
		altered[i].Close *= 3
		altered[i].High *= 3
		altered[i].Low *= 3
		altered[i].Open *= 3
	}
	other, err := Simulate(altered, models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Trades) == 0 || other.Trades[0] != base.Trades[0] {
		t.Errorf("first trade changed with future bars: %+v vs %+v", other.Trades, base.Trades[0])
	}
}

func TestSimulate_SinglePositionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	params := models.DefaultParams()

	for trial := 0; trial < 5; trial++ {
		series := randomWalk(rng, 220)
		for _, fill := range []FillMode{FillSameBar, FillNextOpen} {
			opts := DefaultOptions()
			opts.Fill = fill

			res, err := Simulate(series, params, opts)
			if err != nil {
				t.Fatal(err)
			}
			for k, tr := range res.Trades {
				if tr.ExitIndex < tr.EntryIndex {
					t.Fatalf("trial %d %s: trade %d exits before entry: %+v", trial, fill, k, tr)
				}
				if k > 0 && tr.EntryIndex < res.Trades[k-1].ExitIndex {
					t.Fatalf("trial %d %s: trade %d overlaps the previous one", trial, fill, k)
				}
				if tr.Gain != tr.ExitPrice-tr.EntryPrice {
					t.Fatalf("trial %d %s: gain mismatch %+v", trial, fill, tr)
				}
			}
			if res.Unresolved != nil && len(res.Trades) > 0 &&
				res.Unresolved.EntryIndex < res.Trades[len(res.Trades)-1].ExitIndex {
				t.Fatalf("trial %d %s: unresolved position overlaps the last trade", trial, fill)
			}
			if res.Stats != CalculateStats(res.Trades) {
				t.Fatalf("trial %d %s: stats do not match trades", trial, fill)
			}
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	series := randomWalk(rand.New(rand.NewSource(4)), 200)
	a, err := Simulate(series, models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Simulate(series, models.DefaultParams(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("replays of the same input differ")
	}
}

func TestSimulate_InvalidInput(t *testing.T) {
	params := models.DefaultParams()
	params.IchimokuBase = params.IchimokuSpan
	if _, err := Simulate(fallingSeries(100), params, DefaultOptions()); !errors.Is(err, models.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"negative offset", Options{Offset: -1, Fill: FillSameBar, OpenAtEnd: ExcludeOpen}},
		{"unknown fill", Options{Offset: 60, Fill: "market", OpenAtEnd: ExcludeOpen}},
		{"unknown policy", Options{Offset: 60, Fill: FillSameBar, OpenAtEnd: "keep"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Simulate(fallingSeries(100), models.DefaultParams(), tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

type stubProvider struct {
	series models.Series
	limit  int
}

func (p *stubProvider) Fetch(_ context.Context, _, _ string, limit int) models.Series {
	p.limit = limit
	return p.series
}

func TestEngine_Run(t *testing.T) {
	provider := &stubProvider{series: bounceSeries(130)}
	engine := NewEngine(provider, models.DefaultParams(), DefaultOptions())

	res, err := engine.Run(context.Background(), "BTC/USDT", models.Resolution1h, 5)
	if err != nil {
		t.Fatal(err)
	}
	if provider.limit != 132 {
		t.Errorf("requested %d bars, want 132", provider.limit)
	}
	if len(res.Trades) == 0 {
		t.Error("expected trades")
	}

	empty := NewEngine(&stubProvider{}, models.DefaultParams(), DefaultOptions())
	if _, err := empty.Run(context.Background(), "BTC/USDT", models.Resolution1h, 5); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
