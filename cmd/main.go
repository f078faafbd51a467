package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/analyze"
	"github.com/Alias1177/ProfitForge/internal/api"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/notify"
	"github.com/Alias1177/ProfitForge/internal/trading/backtest"
	"github.com/Alias1177/ProfitForge/internal/utils"
	"github.com/Alias1177/ProfitForge/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) Load configuration and configure logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.SetupLogging(cfg.LogLevel)
	log.Info().Str("symbol", cfg.Symbol).Str("provider", cfg.Provider).Msg("Starting ProfitForge analysis")

	provider, closeProvider, err := api.NewProvider(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data provider")
	}
	defer closeProvider()

	res := cfg.Resolutions()
	params := cfg.Params()

	// 2) Signal on the entry resolution
	series := provider.Fetch(ctx, cfg.Symbol, res.Entry, cfg.CandleLimit)
	analysis, err := analyze.Analyze(series, params)
	if err != nil {
		log.Fatal().Err(err).Int("bars", len(series)).Msg("Signal generation failed")
	}
	fmt.Printf("\n===== %s %s =====\n", cfg.Symbol, res.Entry)
	fmt.Printf("Signal: %s (score %d)\n", analysis.Signal.Label(), analysis.Score)
	printLevels(analysis.Levels)
	fmt.Printf("RSI %s | MACD %s / %s | ATR %s\n",
		analysis.Snapshot.RSI, analysis.Snapshot.MACD, analysis.Snapshot.MACDSignal, analysis.Snapshot.ATR)
	for _, f := range analysis.Factors {
		fmt.Printf("  - %s\n", f)
	}

	// 3) Multi-timeframe confirmation
	confirmation, err := analyze.ConfirmSymbol(ctx, provider, cfg.Symbol, res, cfg.CandleLimit, params)
	if err != nil {
		log.Error().Err(err).Msg("Multi-timeframe confirmation failed")
	} else {
		fmt.Printf("\n===== CONFIRMATION (%s / %s / %s) =====\n", res.Entry, res.Mid, res.High)
		fmt.Printf("Entry: %s | Mid: %s | High: %s\n",
			confirmation.Entry.Label(), confirmation.Mid.Label(), confirmation.High.Label())
		fmt.Printf("Final: %s\n", confirmation.Final.Label())
		fmt.Printf("Session: %s (UTC+1)\n", models.TradingSession(time.Now()))

		if notify.ShouldAlert(confirmation.Final) {
			telegram, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
			if err != nil {
				log.Error().Err(err).Msg("Telegram unavailable")
			} else {
				text := notify.FormatAlert(cfg.Symbol, cfg.Provider, res.Entry, confirmation, models.TradingSession(time.Now()))
				notify.Multi{notify.NewLog(), telegram}.Send(ctx, text)
			}
		}
	}

	// 4) Backtest over recent history
	engine := backtest.NewEngine(provider, params, cfg.BacktestOptions())
	result, err := engine.Run(ctx, cfg.Symbol, res.Entry, cfg.BacktestDays)
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		log.Warn().Err(err).Msg("Not enough history to backtest")
	case err != nil:
		log.Error().Err(err).Msg("Backtest failed")
	default:
		printBacktest(cfg.BacktestDays, result)
	}
}

func printLevels(l models.Levels) {
	fmt.Printf("Entry: %.4f\n", l.Entry)
	fmt.Printf("Stop Loss: %.4f\n", l.StopLoss)
	fmt.Printf("TP1: %.4f | TP2: %.4f\n", l.TakeProfit1, l.TakeProfit2)
	if l.Degenerate {
		fmt.Println("Warning: ATR unavailable or zero, stop loss equals entry")
	}
}

func printBacktest(days int, result *backtest.Result) {
	s := result.Stats
	fmt.Printf("\n===== BACKTEST (%d days) =====\n", days)
	fmt.Printf("Trades: %d\n", s.TotalTrades)
	fmt.Printf("Win rate: %.2f%%\n", s.WinRate)
	fmt.Printf("Avg P/L: %.4f\n", s.AvgPL)
	fmt.Printf("Total P/L: %.4f\n", s.TotalPL)
	for _, t := range result.Trades {
		fmt.Printf("  %s -> %s  %.4f -> %.4f  (%+.4f)\n",
			t.EntryTime.Format(time.RFC3339), t.ExitTime.Format(time.RFC3339), t.EntryPrice, t.ExitPrice, t.Gain)
	}
	if u := result.Unresolved; u != nil {
		fmt.Printf("Open position from %.4f at %s (unrealized %+.4f)\n",
			u.EntryPrice, u.EntryTime.Format(time.RFC3339), u.Gain)
	}
}
