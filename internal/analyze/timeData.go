package analyze

import (
	"context"
	"sync"

	"github.com/Alias1177/ProfitForge/models"
)

// Resolutions names the entry resolution and the two higher trend resolutions
type Resolutions struct {
	Entry string `json:"entry"`
	Mid   string `json:"mid"`
	High  string `json:"high"`
}

// DefaultResolutions is entry on 1h with trend confirmation on 4h and 1d
func DefaultResolutions() Resolutions {
	return Resolutions{
		Entry: models.Resolution1h,
		Mid:   models.Resolution4h,
		High:  models.Resolution1d,
	}
}

// MultiTimeframeData holds the series fetched for each resolution
type MultiTimeframeData struct {
	Entry models.Series
	Mid   models.Series
	High  models.Series
}

// GetMultiTimeframeData fetches all three resolutions of a symbol in parallel.
// A failed fetch leaves its series empty.
func GetMultiTimeframeData(ctx context.Context, provider models.MarketDataProvider, symbol string, res Resolutions, limit int) MultiTimeframeData {
	resolutions := [3]string{res.Entry, res.Mid, res.High}
	var fetched [3]models.Series

	// Each goroutine owns one slot, so no locking is needed
	var wg sync.WaitGroup
	for i, resolution := range resolutions {
		wg.Add(1)
		go func(i int, resolution string) {
			defer wg.Done()
			fetched[i] = provider.Fetch(ctx, symbol, resolution, limit)
		}(i, resolution)
	}
	wg.Wait()

	return MultiTimeframeData{Entry: fetched[0], Mid: fetched[1], High: fetched[2]}
}

// ConfirmSymbol fetches a symbol on all three resolutions and confirms the entry signal
func ConfirmSymbol(ctx context.Context, provider models.MarketDataProvider, symbol string, res Resolutions, limit int, params models.Params) (models.Confirmation, error) {
	data := GetMultiTimeframeData(ctx, provider, symbol, res, limit)
	return ConfirmMultiTimeframe(data.Entry, data.Mid, data.High, params)
}
