package models

import "context"

// MarketDataProvider yields bar series. Implementations return bars oldest-to-newest
// and an empty series, never an error, on any failure or unsupported input.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol, resolution string, limit int) Series
}

// Notifier is a fire-and-forget text sink. Delivery failures never reach the caller.
type Notifier interface {
	Send(ctx context.Context, text string)
}
