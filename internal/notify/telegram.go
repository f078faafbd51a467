package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Telegram delivers notifications to a Telegram chat
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a Telegram sink. An empty token yields a sink that only logs.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint)
}

// NewTelegramWithEndpoint creates a Telegram sink against a custom Bot API endpoint
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string) (*Telegram, error) {
	logger := log.With().Str("component", "notify").Str("sink", "telegram").Logger()
	if token == "" {
		logger.Warn().Msg("TELEGRAM_BOT_TOKEN not set, Telegram delivery disabled")
		return &Telegram{chatID: chatID, logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return FromBot(bot, chatID), nil
}

// FromBot wraps an existing bot client
func FromBot(bot *tgbotapi.BotAPI, chatID int64) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notify").Str("sink", "telegram").Logger(),
	}
}

// Send delivers the text to the default chat
func (t *Telegram) Send(ctx context.Context, text string) {
	t.SendTo(ctx, t.chatID, text)
}

// SendTo delivers the text to a specific chat. Failures are logged, not returned.
func (t *Telegram) SendTo(ctx context.Context, chatID int64, text string) {
	if t.bot == nil || chatID == 0 {
		t.logger.Info().Int64("chat_id", chatID).Str("text", text).Msg("Telegram disabled, alert logged only")
		return
	}
	if ctx.Err() != nil {
		t.logger.Warn().Err(ctx.Err()).Int64("chat_id", chatID).Msg("Skipping Telegram delivery")
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send Telegram message")
		return
	}
	t.logger.Debug().Int64("chat_id", chatID).Msg("Telegram message sent")
}
