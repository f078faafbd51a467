package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/Alias1177/ProfitForge/models"
)

func TestDefaultGrid(t *testing.T) {
	grid := DefaultGrid()
	if len(grid) != 324 {
		t.Fatalf("grid size = %d, want 324", len(grid))
	}
	if grid[0] != models.DefaultParams() {
		t.Errorf("first grid entry = %+v, want defaults", grid[0])
	}
	for i, p := range grid {
		if err := p.Validate(); err != nil {
			t.Fatalf("grid[%d] invalid: %v", i, err)
		}
	}
}

func TestEvaluateGrid(t *testing.T) {
	series := bounceSeries(130)
	grid := DefaultGrid()[:4]
	broken := models.DefaultParams()
	broken.MACDFast = 40
	grid = append(grid, broken)

	results, err := EvaluateGrid(context.Background(), series, grid, DefaultOptions(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(grid) {
		t.Fatalf("got %d results, want %d", len(results), len(grid))
	}

	for i, r := range results[:4] {
		if r.Params != grid[i] {
			t.Errorf("result %d out of order", i)
		}
		if r.Err != nil {
			t.Errorf("result %d: %v", i, r.Err)
		}
		want, _ := Simulate(series, grid[i], DefaultOptions())
		if r.Stats != want.Stats {
			t.Errorf("result %d stats = %+v, want %+v", i, r.Stats, want.Stats)
		}
	}
	if !errors.Is(results[4].Err, models.ErrInvalidParams) {
		t.Errorf("expected invalid params error, got %v", results[4].Err)
	}
}

func TestEvaluateGrid_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EvaluateGrid(ctx, bounceSeries(130), DefaultGrid(), DefaultOptions(), 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
