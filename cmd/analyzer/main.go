package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/api"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/trading/backtest"
	"github.com/Alias1177/ProfitForge/internal/utils"
	"github.com/Alias1177/ProfitForge/models"
)

func main() {
	top := flag.Int("top", 10, "number of parameter sets to print, ranked by total P/L")
	asJSON := flag.Bool("json", false, "print every grid result as JSON")
	flag.Parse()

	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	utils.SetupLogging(cfg.LogLevel)
	printConfig(cfg)

	// 3. Setup market data
	provider, closeProvider, err := api.NewProvider(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data provider")
	}
	defer closeProvider()

	opts := cfg.BacktestOptions()
	resolution := cfg.EntryResolution
	count := models.CandlesForDays(resolution, cfg.BacktestDays)
	if count <= opts.Offset {
		count = opts.Offset + 1
	}

	series := provider.Fetch(ctx, cfg.Symbol, resolution, count)
	if len(series) <= opts.Offset {
		log.Fatal().Int("bars", len(series)).Int("offset", opts.Offset).Msg("Not enough history for the grid")
	}

	// 4. Evaluate the grid
	grid := backtest.DefaultGrid()
	log.Info().Int("sets", len(grid)).Int("bars", len(series)).Msg("Evaluating parameter grid")

	results, err := backtest.EvaluateGrid(ctx, series, grid, opts, cfg.GridWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("Grid evaluation interrupted")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode results")
		}
		return
	}

	printRanking(results, *top)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	opts := cfg.BacktestOptions()
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Provider", cfg.Provider).
		Str("Resolution", cfg.EntryResolution).
		Int("BacktestDays", cfg.BacktestDays).
		Int("Offset", opts.Offset).
		Str("Fill", string(opts.Fill)).
		Str("OpenAtEnd", string(opts.OpenAtEnd)).
		Int("Workers", cfg.GridWorkers).
		Msg("Configuration loaded")
}

// printRanking lists the best parameter sets. Ranking is for display only.
func printRanking(results []backtest.GridResult, top int) {
	ranked := make([]backtest.GridResult, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Stats.TotalPL > ranked[j].Stats.TotalPL
	})
	if top > len(ranked) {
		top = len(ranked)
	}

	fmt.Printf("\n===== GRID RESULTS (%d sets, %d failed) =====\n", len(results), failed)
	fmt.Printf("%-4s %-4s %-4s %-5s %-5s %7s %9s %12s %12s\n", "ATR", "RSI", "FAST", "SLOW", "SIG", "TRADES", "WIN%", "AVG P/L", "TOTAL P/L")
	for _, r := range ranked[:top] {
		p, s := r.Params, r.Stats
		fmt.Printf("%-4d %-4d %-4d %-5d %-5d %7d %8.2f%% %12.4f %12.4f\n",
			p.ATRPeriod, p.RSIPeriod, p.MACDFast, p.MACDSlow, p.MACDSignal,
			s.TotalTrades, s.WinRate, s.AvgPL, s.TotalPL)
	}
}
