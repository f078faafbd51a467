package api

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/api/binance"
	"github.com/Alias1177/ProfitForge/internal/api/cache"
	"github.com/Alias1177/ProfitForge/internal/api/twelvedata"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/metrics"
	"github.com/Alias1177/ProfitForge/internal/store/sqlite"
	"github.com/Alias1177/ProfitForge/models"
)

// NewProvider builds the configured market data provider, instruments it when metrics are given
// and puts the sqlite cache in front of it when CACHE_PATH is set. The returned close function
// releases the cache.
func NewProvider(cfg *config.Config, m *metrics.Metrics) (models.MarketDataProvider, func() error, error) {
	var provider models.MarketDataProvider

	switch cfg.Provider {
	case config.ProviderTwelveData:
		provider = twelvedata.NewClient(twelvedata.ClientOptions{
			APIKey:          cfg.TwelveAPIKey,
			RequestTimeout:  cfg.RequestTimeoutDuration(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetries:      cfg.MaxRetries,
			MaxRetryTimeout: 30 * time.Second,
		})
	case config.ProviderBinance:
		provider = binance.NewClient(binance.ClientOptions{
			BaseURL:         cfg.BinanceBaseURL,
			RequestTimeout:  cfg.RequestTimeoutDuration(),
			RequestsPerSec:  cfg.RequestsPerSec,
			MaxRetries:      cfg.MaxRetries,
			MaxRetryTimeout: 30 * time.Second,
		})
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	if m != nil {
		provider = metrics.Instrument(cfg.Provider, provider, m)
	}

	closeFn := func() error { return nil }
	if cfg.CachePath != "" {
		store, err := sqlite.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open candle cache: %w", err)
		}
		provider = cache.NewProvider(provider, store)
		closeFn = store.Close
		log.Info().Str("path", cfg.CachePath).Msg("Candle cache enabled")
	}

	return provider, closeFn, nil
}
