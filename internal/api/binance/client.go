package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ProfitForge/internal/platform/http"
	"github.com/Alias1177/ProfitForge/models"
)

// DefaultBaseURL is the public Binance spot API
const DefaultBaseURL = "https://api.binance.com"

// maxLimit is the largest page the klines endpoint returns
const maxLimit = 1000

var intervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "1d": true, "1w": true,
}

// Client fetches klines from the Binance REST API
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Binance client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new Binance API client
func NewClient(options ClientOptions) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
			Name:            "binance",
		}),
		logger: log.With().Str("component", "binance_client").Logger(),
	}
}

// MarketSymbol converts a pair like BTC/USDT into the exchange form BTCUSDT
func MarketSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// Fetch returns up to limit bars oldest first. Any failure yields an empty series.
func (c *Client) Fetch(ctx context.Context, symbol, resolution string, limit int) models.Series {
	candles, err := c.GetKlines(ctx, symbol, resolution, limit)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Str("resolution", resolution).Msg("Fetch failed")
		return models.Series{}
	}
	return candles
}

// GetKlines fetches the most recent klines of a symbol
func (c *Client) GetKlines(ctx context.Context, symbol, resolution string, limit int) (models.Series, error) {
	if !intervals[resolution] {
		return nil, fmt.Errorf("unsupported resolution %q", resolution)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	query := url.Values{}
	query.Set("symbol", MarketSymbol(symbol))
	query.Set("interval", resolution)
	query.Set("limit", strconv.Itoa(limit))

	c.logger.Debug().Str("symbol", symbol).Str("interval", resolution).Int("limit", limit).Msg("Fetching klines")

	var rows [][]json.RawMessage
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/api/v3/klines?"+query.Encode(), &rows); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(rows))
	for _, row := range rows {
		bar, err := parseKline(row)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Skipping malformed kline")
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty data returned")
	}

	return models.NormalizeSeries(bars), nil
}

// parseKline decodes [openTime, open, high, low, close, volume, ...]
func parseKline(row []json.RawMessage) (models.Bar, error) {
	if len(row) < 6 {
		return models.Bar{}, fmt.Errorf("kline has %d fields, want at least 6", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return models.Bar{}, fmt.Errorf("parsing open time: %w", err)
	}

	values := make([]float64, 5)
	for i := range values {
		var raw string
		if err := json.Unmarshal(row[i+1], &raw); err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		values[i] = v
	}

	bar := models.Bar{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}
	if !bar.Finite() {
		return models.Bar{}, fmt.Errorf("kline at %d: %w", openTime, models.ErrNonFinitePrice)
	}
	return bar, nil
}
