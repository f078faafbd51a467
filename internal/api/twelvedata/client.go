package twelvedata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/ProfitForge/internal/platform/http"
	"github.com/Alias1177/ProfitForge/models"
)

// DefaultBaseURL is the public Twelve Data API
const DefaultBaseURL = "https://api.twelvedata.com"

// maxOutputSize is the largest outputsize the time_series endpoint accepts
const maxOutputSize = 5000

var intervals = map[string]string{
	"1m":                 "1min",
	models.Resolution5m:  "5min",
	models.Resolution15m: "15min",
	"30m":                "30min",
	models.Resolution1h:  "1h",
	"2h":                 "2h",
	models.Resolution4h:  "4h",
	models.Resolution1d:  "1day",
	"1w":                 "1week",
}

var datetimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
		Name:            "twelvedata",
	}

	// Free plan allows 8 requests per minute
	if httpOpts.RequestsPerSec == 0 {
		httpOpts.RequestsPerSec = 1
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Fetch returns up to limit bars oldest first. Any failure yields an empty series.
func (c *Client) Fetch(ctx context.Context, symbol, resolution string, limit int) models.Series {
	candles, err := c.GetCandles(ctx, symbol, resolution, limit)
	if err != nil {
		c.logger.Error().Err(err).Str("symbol", symbol).Str("resolution", resolution).Msg("Fetch failed")
		return models.Series{}
	}
	return candles
}

// GetCandles fetches candle data from Twelve Data API
func (c *Client) GetCandles(ctx context.Context, symbol, resolution string, count int) (models.Series, error) {
	interval, ok := intervals[resolution]
	if !ok {
		return nil, fmt.Errorf("unsupported resolution %q", resolution)
	}
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if count > maxOutputSize {
		count = maxOutputSize
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("outputsize", strconv.Itoa(count))
	query.Set("timezone", "UTC")
	query.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Str("interval", interval).Int("count", count).Msg("Fetching candles")

	var data timeSeriesResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"/time_series?"+query.Encode(), &data); err != nil {
		return nil, err
	}

	if data.Status == "error" {
		return nil, fmt.Errorf("Twelve Data API error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		return nil, fmt.Errorf("empty data returned")
	}

	bars := make([]models.Bar, 0, len(data.Values))
	for _, v := range data.Values {
		bar, err := parseValue(v.Datetime, v.Open, v.High, v.Low, v.Close, v.Volume)
		if err != nil {
			c.logger.Warn().Err(err).Str("datetime", v.Datetime).Msg("Skipping malformed candle")
			continue
		}
		bars = append(bars, bar)
	}

	// API returns newest first
	candles := models.NormalizeSeries(bars)
	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

func parseValue(datetime, open, high, low, close, volume string) (models.Bar, error) {
	ts, err := parseDatetime(datetime)
	if err != nil {
		return models.Bar{}, err
	}

	var bar models.Bar
	bar.Timestamp = ts
	fields := []struct {
		raw string
		dst *float64
	}{
		{open, &bar.Open},
		{high, &bar.High},
		{low, &bar.Low},
		{close, &bar.Close},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("parsing price %q: %w", f.raw, err)
		}
		*f.dst = v
	}
	if !bar.Finite() {
		return models.Bar{}, fmt.Errorf("candle at %s: %w", datetime, models.ErrNonFinitePrice)
	}

	// Forex pairs carry no volume
	if volume != "" {
		if v, err := strconv.ParseFloat(volume, 64); err == nil {
			bar.Volume = v
		}
	}
	return bar, nil
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}
