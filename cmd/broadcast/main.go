package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/api"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/database"
	"github.com/Alias1177/ProfitForge/internal/metrics"
	"github.com/Alias1177/ProfitForge/internal/notify"
	"github.com/Alias1177/ProfitForge/internal/scanner"
	"github.com/Alias1177/ProfitForge/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.SetupLogging(cfg.LogLevel)

	// Metrics and health
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(3 * cfg.ScanInterval)

	server := metrics.NewServer(cfg.MetricsAddr, reg, health)
	server.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
	}()

	provider, closeProvider, err := api.NewProvider(cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create market data provider")
	}
	defer closeProvider()

	// Telegram sink for the default chat
	telegram, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	opts := []scanner.Option{scanner.WithMetrics(m), scanner.WithHealth(health)}

	// Subscribed chats are optional
	if cfg.Database.Configured() {
		db, err := database.New(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		opts = append(opts, scanner.WithSubscribers(db, telegram))
	} else {
		log.Warn().Msg("DB_HOST/DB_NAME not set, subscriber alerts disabled")
	}

	s := scanner.New(provider, notify.Multi{notify.NewLog(), telegram}, scanner.Config{
		Symbols:     cfg.Symbols,
		Exchange:    cfg.Provider,
		Resolutions: cfg.Resolutions(),
		Limit:       cfg.CandleLimit,
		Params:      cfg.Params(),
		Concurrency: cfg.ScanConcurrency,
	}, opts...)

	log.Info().
		Strs("symbols", cfg.Symbols).
		Dur("interval", cfg.ScanInterval).
		Str("metrics_addr", cfg.MetricsAddr).
		Msg("Starting signal broadcast")

	if err := s.Run(ctx, cfg.ScanInterval); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Scanner stopped")
	}
	log.Info().Msg("Broadcast stopped")
}
