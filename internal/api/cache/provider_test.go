package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Alias1177/ProfitForge/internal/store/sqlite"
	"github.com/Alias1177/ProfitForge/models"
)

type switchProvider struct {
	series models.Series
}

func (p *switchProvider) Fetch(_ context.Context, _, _ string, _ int) models.Series {
	return p.series
}

func TestProvider_FallsBackToStore(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	live := models.Series{
		{Timestamp: start, Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Timestamp: start.Add(time.Hour), Open: 1.5, High: 2.5, Low: 1, Close: 2},
	}
	upstream := &switchProvider{series: live}
	provider := NewProvider(upstream, store)
	ctx := context.Background()

	if got := provider.Fetch(ctx, "SOL/USDT", "1h", 10); len(got) != 2 {
		t.Fatalf("live fetch returned %d bars", len(got))
	}

	upstream.series = models.Series{}
	got := provider.Fetch(ctx, "SOL/USDT", "1h", 10)
	if len(got) != 2 || got[1].Close != 2 {
		t.Fatalf("cached fetch = %+v", got)
	}

	if got := provider.Fetch(ctx, "XRP/USDT", "1h", 10); len(got) != 0 {
		t.Errorf("expected nothing cached for another symbol, got %d bars", len(got))
	}
}
