package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(*Params) {}, false},
		{"zero atr", func(p *Params) { p.ATRPeriod = 0 }, true},
		{"negative signal", func(p *Params) { p.MACDSignal = -1 }, true},
		{"fast equals slow", func(p *Params) { p.MACDFast = p.MACDSlow }, true},
		{"conversion above base", func(p *Params) { p.IchimokuConversion = 30 }, true},
		{"base equals span", func(p *Params) { p.IchimokuBase = p.IchimokuSpan }, true},
		{"single bar windows", func(p *Params) { p.ATRPeriod, p.RSIPeriod = 1, 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("error %v does not wrap ErrInvalidParams", err)
			}
		})
	}
}

func TestWarmupBars(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"defaults ichimoku dominates", DefaultParams(), 52 + 26},
		{"macd dominates", Params{ATRPeriod: 5, RSIPeriod: 5, MACDFast: 12, MACDSlow: 40, MACDSignal: 20, IchimokuConversion: 2, IchimokuBase: 3, IchimokuSpan: 4}, 60},
		{"rsi dominates", Params{ATRPeriod: 5, RSIPeriod: 90, MACDFast: 2, MACDSlow: 3, MACDSignal: 2, IchimokuConversion: 2, IchimokuBase: 3, IchimokuSpan: 4}, 90},
		{"atr dominates", Params{ATRPeriod: 100, RSIPeriod: 5, MACDFast: 2, MACDSlow: 3, MACDSignal: 2, IchimokuConversion: 2, IchimokuBase: 3, IchimokuSpan: 4}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.WarmupBars(); got != tt.want {
				t.Errorf("WarmupBars() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSignalHelpers(t *testing.T) {
	tests := []struct {
		signal  Signal
		bullish bool
		bearish bool
		weak    bool
		wrapped Signal
		label   string
	}{
		{SignalStrongBuy, true, false, false, "WEAK_STRONG_BUY", "STRONG BUY"},
		{SignalBuy, true, false, false, "WEAK_BUY", "BUY"},
		{SignalHold, false, false, false, SignalHold, "HOLD"},
		{SignalSell, false, true, false, "WEAK_SELL", "SELL"},
		{SignalStrongSell, false, true, false, "WEAK_STRONG_SELL", "STRONG SELL"},
		{"WEAK_BUY", true, false, true, "WEAK_BUY", "WEAK BUY"},
	}

	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			if got := tt.signal.IsBullish(); got != tt.bullish {
				t.Errorf("IsBullish() = %v", got)
			}
			if got := tt.signal.IsBearish(); got != tt.bearish {
				t.Errorf("IsBearish() = %v", got)
			}
			if got := tt.signal.IsWeak(); got != tt.weak {
				t.Errorf("IsWeak() = %v", got)
			}
			if got := tt.signal.Weak(); got != tt.wrapped {
				t.Errorf("Weak() = %s, want %s", got, tt.wrapped)
			}
			if got := tt.signal.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestSeriesPrefix(t *testing.T) {
	s := Series{{Close: 1}, {Close: 2}, {Close: 3}}

	p := s.Prefix(2)
	if len(p) != 2 || cap(p) != 2 {
		t.Fatalf("Prefix(2) len=%d cap=%d, want 2/2", len(p), cap(p))
	}
	_ = append(p, Bar{Close: 99})
	if s[2].Close != 3 {
		t.Errorf("append through a prefix overwrote bar 2: %v", s[2].Close)
	}

	if got := s.Prefix(10); len(got) != 3 {
		t.Errorf("Prefix(10) len = %d, want 3", len(got))
	}
	if got := s.Prefix(-1); len(got) != 0 {
		t.Errorf("Prefix(-1) len = %d, want 0", len(got))
	}

	if _, ok := (Series{}).Last(); ok {
		t.Error("Last() on empty series reported a bar")
	}
	if last, _ := s.Last(); last.Close != 3 {
		t.Errorf("Last().Close = %v, want 3", last.Close)
	}
}

func TestNormalizeSeries(t *testing.T) {
	bars := []Bar{
		{Timestamp: t0.Add(2 * time.Hour), Close: 3},
		{Timestamp: t0, Close: 1},
		{Timestamp: t0.Add(time.Hour), Close: 2},
		{Timestamp: t0.Add(time.Hour), Close: 20},
	}

	got := NormalizeSeries(bars)

	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %d bars, want %d", len(got), len(want))
	}
	for i, c := range want {
		if got[i].Close != c {
			t.Errorf("bar %d close = %v, want %v", i, got[i].Close, c)
		}
	}
	if bars[0].Close != 3 {
		t.Error("input slice was reordered")
	}
	if n := NormalizeSeries(nil); n == nil || len(n) != 0 {
		t.Errorf("NormalizeSeries(nil) = %#v, want empty non-nil series", n)
	}
}

func TestNormalizeSeries_DropsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		bar  Bar
	}{
		{"nan close", Bar{Timestamp: t0.Add(time.Hour), Open: 2, High: 2, Low: 2, Close: math.NaN()}},
		{"inf high", Bar{Timestamp: t0.Add(time.Hour), Open: 2, High: math.Inf(1), Low: 2, Close: 2}},
		{"negative inf low", Bar{Timestamp: t0.Add(time.Hour), Open: 2, High: 2, Low: math.Inf(-1), Close: 2}},
		{"nan open", Bar{Timestamp: t0.Add(time.Hour), Open: math.NaN(), High: 2, Low: 2, Close: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars := []Bar{
				{Timestamp: t0, Open: 1, High: 1, Low: 1, Close: 1},
				tt.bar,
				{Timestamp: t0.Add(2 * time.Hour), Open: 3, High: 3, Low: 3, Close: 3},
			}
			if tt.bar.Finite() {
				t.Fatal("bar should not be finite")
			}

			got := NormalizeSeries(bars)
			if len(got) != 2 {
				t.Fatalf("got %d bars, want 2", len(got))
			}
			if got[0].Close != 1 || got[1].Close != 3 {
				t.Errorf("closes = %v, %v, want 1, 3", got[0].Close, got[1].Close)
			}
		})
	}
}

func TestCandlesForDays(t *testing.T) {
	tests := []struct {
		resolution string
		days       int
		want       int
	}{
		{Resolution1h, 5, 132},
		{Resolution4h, 30, 198},
		{Resolution1d, 10, 11},
		{Resolution5m, 1, 316},
		{"3h", 5, 0},
		{Resolution1h, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.resolution, func(t *testing.T) {
			if got := CandlesForDays(tt.resolution, tt.days); got != tt.want {
				t.Errorf("CandlesForDays(%s, %d) = %d, want %d", tt.resolution, tt.days, got, tt.want)
			}
		})
	}
}

func TestTradingSession(t *testing.T) {
	tests := []struct {
		utcHour int
		want    string
	}{
		{23, "Asian Session"}, // 00:00 UTC+1
		{6, "Asian Session"},
		{7, "London Open"},
		{10, "London Open"},
		{11, "NY + London Overlap"},
		{15, "New York"},
		{19, "New York"},
		{20, "Quiet Hours"},
		{22, "Quiet Hours"},
	}

	for _, tt := range tests {
		at := t0.Add(time.Duration(tt.utcHour) * time.Hour)
		if got := TradingSession(at); got != tt.want {
			t.Errorf("TradingSession(%02d:00 UTC) = %q, want %q", tt.utcHour, got, tt.want)
		}
	}
}
