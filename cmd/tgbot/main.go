package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/api"
	"github.com/Alias1177/ProfitForge/internal/bot"
	"github.com/Alias1177/ProfitForge/internal/config"
	"github.com/Alias1177/ProfitForge/internal/database"
	"github.com/Alias1177/ProfitForge/internal/metrics"
	"github.com/Alias1177/ProfitForge/internal/utils"
)

// pairCallbackPrefix marks inline keyboard presses that ask for a confirmation
const pairCallbackPrefix = "pair_"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	utils.SetupLogging(cfg.LogLevel)
	logger := log.With().Str("component", "tgbot").Logger()

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	// Initialize Telegram bot
	tg, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	logger.Info().Str("username", tg.Self.UserName).Msg("Authorized on Telegram")

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	server := metrics.NewServer(cfg.MetricsAddr, reg, metrics.NewHealthStatus(0))
	server.Start()
	defer server.Stop(context.Background())

	provider, closeProvider, err := api.NewProvider(cfg, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create market data provider")
	}
	defer closeProvider()

	var subs bot.SubscriptionStore
	if cfg.Database.Configured() {
		db, err := database.New(cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		subs = db
	} else {
		logger.Warn().Msg("DB_HOST/DB_NAME not set, /subscribe disabled")
	}

	handler := bot.NewHandler(provider, subs, m, bot.Settings{
		Symbols:      cfg.Symbols,
		Exchange:     cfg.Provider,
		Resolutions:  cfg.Resolutions(),
		Limit:        cfg.CandleLimit,
		Params:       cfg.Params(),
		Backtest:     cfg.BacktestOptions(),
		BacktestDays: cfg.BacktestDays,
	})

	// Setup update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		tg.StopReceivingUpdates()
	}()

	// Start handling updates
	for update := range updates {
		switch {
		case update.Message != nil:
			handleMessage(ctx, tg, handler, update.Message, cfg.Symbols, &logger)
		case update.CallbackQuery != nil:
			handleCallback(ctx, tg, handler, update.CallbackQuery, &logger)
		}
	}
	logger.Info().Msg("Bot stopped")
}

// handleMessage answers a text message and attaches the pair menu to /start
func handleMessage(ctx context.Context, tg *tgbotapi.BotAPI, handler *bot.Handler, message *tgbotapi.Message, symbols []string, logger *zerolog.Logger) {
	chatID := message.Chat.ID
	reply := handler.Handle(ctx, chatID, message.Text)

	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if cmd, ok := bot.ParseCommand(message.Text); ok && (cmd.Name == "start" || cmd.Name == "pairs") {
		msg.ReplyMarkup = pairKeyboard(symbols)
	}
	send(tg, msg, logger)
}

// handleCallback runs a confirmation for a pair chosen from the inline menu
func handleCallback(ctx context.Context, tg *tgbotapi.BotAPI, handler *bot.Handler, callback *tgbotapi.CallbackQuery, logger *zerolog.Logger) {
	if _, err := tg.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.Warn().Err(err).Msg("Failed to acknowledge callback")
	}
	if callback.Message == nil || !strings.HasPrefix(callback.Data, pairCallbackPrefix) {
		return
	}

	symbol := strings.TrimPrefix(callback.Data, pairCallbackPrefix)
	chatID := callback.Message.Chat.ID
	reply := handler.Handle(ctx, chatID, "/confirm "+symbol)

	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ParseMode = tgbotapi.ModeMarkdown
	send(tg, msg, logger)
}

// pairKeyboard displays the watch list as inline buttons, two per row
func pairKeyboard(symbols []string) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, pair := range symbols {
		if i%2 == 0 && i > 0 {
			keyboard = append(keyboard, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(pair, pairCallbackPrefix+pair))
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func send(tg *tgbotapi.BotAPI, msg tgbotapi.MessageConfig, logger *zerolog.Logger) {
	if _, err := tg.Send(msg); err != nil {
		logger.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to send reply")
	}
}
