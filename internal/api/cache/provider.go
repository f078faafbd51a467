package cache

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/models"
)

// BarStore is the persistence the cache reads and writes
type BarStore interface {
	SaveBars(ctx context.Context, symbol, resolution string, series models.Series) error
	LoadBars(ctx context.Context, symbol, resolution string, limit int) (models.Series, error)
}

// Provider records every successful upstream fetch and serves the stored bars
// when the upstream comes back empty
type Provider struct {
	upstream models.MarketDataProvider
	store    BarStore
	logger   zerolog.Logger
}

// NewProvider wraps an upstream provider with a bar store
func NewProvider(upstream models.MarketDataProvider, store BarStore) *Provider {
	return &Provider{
		upstream: upstream,
		store:    store,
		logger:   log.With().Str("component", "candle_cache").Logger(),
	}
}

// Fetch implements models.MarketDataProvider
func (p *Provider) Fetch(ctx context.Context, symbol, resolution string, limit int) models.Series {
	series := p.upstream.Fetch(ctx, symbol, resolution, limit)
	if len(series) > 0 {
		if err := p.store.SaveBars(ctx, symbol, resolution, series); err != nil {
			p.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache bars")
		}
		return series
	}

	cached, err := p.store.LoadBars(ctx, symbol, resolution, limit)
	if err != nil {
		p.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to load cached bars")
		return models.Series{}
	}
	if len(cached) > 0 {
		p.logger.Info().Str("symbol", symbol).Str("resolution", resolution).Int("bars", len(cached)).
			Msg("Upstream empty, serving cached bars")
	}
	return cached
}
