package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "test",
		BaseURL:         url,
		RequestTimeout:  2 * time.Second,
		RequestsPerSec:  100,
		MaxRetries:      1,
		MaxRetryTimeout: time.Second,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1day" || q.Get("symbol") != "EUR/USD" || q.Get("outputsize") != "3" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{
			"meta": {"symbol": "EUR/USD", "interval": "1day"},
			"values": [
				{"datetime": "2024-01-03", "open": "1.3", "high": "1.4", "low": "1.2", "close": "1.35"},
				{"datetime": "2024-01-02", "open": "1.2", "high": "1.3", "low": "1.1", "close": "1.25"},
				{"datetime": "2024-01-02", "open": "9", "high": "9", "low": "9", "close": "9"},
				{"datetime": "2024-01-01", "open": "1.1", "high": "1.2", "low": "1.0", "close": "1.15", "volume": "10"}
			],
			"status": "ok"
		}`))
	}))
	defer srv.Close()

	series := newTestClient(srv.URL).Fetch(context.Background(), "EUR/USD", "1d", 3)
	if len(series) != 3 {
		t.Fatalf("got %d bars, want 3", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Timestamp.After(series[i-1].Timestamp) {
			t.Fatalf("bars not strictly increasing at %d", i)
		}
	}
	if series[0].Close != 1.15 || series[0].Volume != 10 {
		t.Errorf("first bar = %+v", series[0])
	}
	if series[1].Close != 1.25 {
		t.Errorf("duplicate timestamp should keep the first occurrence, got %+v", series[1])
	}
}

func TestFetch_FailuresYieldEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "code": 400, "message": "symbol not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	tests := []struct {
		name       string
		symbol     string
		resolution string
	}{
		{"api error", "NOPE/NOPE", "1h"},
		{"unsupported resolution", "EUR/USD", "3h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := client.Fetch(context.Background(), tt.symbol, tt.resolution, 10)
			if series == nil || len(series) != 0 {
				t.Errorf("expected an empty non-nil series, got %v", series)
			}
		})
	}
}

func TestFetch_DropsNonFiniteBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"meta": {"symbol": "EUR/USD", "interval": "1day"},
			"values": [
				{"datetime": "2024-01-04", "open": "1.4", "high": "1.5", "low": "1.3", "close": "1.45"},
				{"datetime": "2024-01-03", "open": "1.3", "high": "Inf", "low": "1.2", "close": "1.35"},
				{"datetime": "2024-01-02", "open": "1.2", "high": "1.3", "low": "1.1", "close": "NaN"},
				{"datetime": "2024-01-01", "open": "1.1", "high": "1.2", "low": "1.0", "close": "1.15"}
			],
			"status": "ok"
		}`))
	}))
	defer srv.Close()

	series := newTestClient(srv.URL).Fetch(context.Background(), "EUR/USD", "1d", 4)
	if len(series) != 2 {
		t.Fatalf("got %d bars, want 2", len(series))
	}
	for _, b := range series {
		if !b.Finite() {
			t.Errorf("non-finite bar kept: %+v", b)
		}
	}
	if series[0].Close != 1.15 || series[1].Close != 1.45 {
		t.Errorf("closes = %v, %v, want 1.15, 1.45", series[0].Close, series[1].Close)
	}
}
