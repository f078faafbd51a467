package api

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Alias1177/ProfitForge/internal/api/binance"
	"github.com/Alias1177/ProfitForge/internal/api/cache"
	"github.com/Alias1177/ProfitForge/internal/api/twelvedata"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/metrics"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		metrics bool
		check   func(t *testing.T, p interface{})
		wantErr bool
	}{
		{
			name:   "binance",
			mutate: func(c *config.Config) { c.Provider = config.ProviderBinance },
			check: func(t *testing.T, p interface{}) {
				if _, ok := p.(*binance.Client); !ok {
					t.Errorf("got %T, want *binance.Client", p)
				}
			},
		},
		{
			name:   "twelvedata",
			mutate: func(c *config.Config) { c.Provider = config.ProviderTwelveData; c.TwelveAPIKey = "key" },
			check: func(t *testing.T, p interface{}) {
				if _, ok := p.(*twelvedata.Client); !ok {
					t.Errorf("got %T, want *twelvedata.Client", p)
				}
			},
		},
		{
			name:    "instrumented",
			mutate:  func(c *config.Config) { c.Provider = config.ProviderBinance },
			metrics: true,
			check: func(t *testing.T, p interface{}) {
				if _, ok := p.(*metrics.InstrumentedProvider); !ok {
					t.Errorf("got %T, want *metrics.InstrumentedProvider", p)
				}
			},
		},
		{
			name: "cached",
			mutate: func(c *config.Config) {
				c.Provider = config.ProviderBinance
				c.CachePath = filepath.Join(t.TempDir(), "candles.db")
			},
			check: func(t *testing.T, p interface{}) {
				if _, ok := p.(*cache.Provider); !ok {
					t.Errorf("got %T, want *cache.Provider", p)
				}
			},
		},
		{
			name:    "unknown",
			mutate:  func(c *config.Config) { c.Provider = "kraken" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.FromEnv()
			cfg.CachePath = ""
			tt.mutate(cfg)

			var m *metrics.Metrics
			if tt.metrics {
				m = metrics.NewMetrics(prometheus.NewRegistry())
			}

			p, closeFn, err := NewProvider(cfg, m)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			defer closeFn()
			tt.check(t, p)
		})
	}
}
