package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/models"
)

// Log writes notifications to the structured log
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log sink
func NewLog() *Log {
	return &Log{logger: log.With().Str("component", "notify").Str("sink", "log").Logger()}
}

// Send logs the text
func (l *Log) Send(_ context.Context, text string) {
	l.logger.Info().Str("text", text).Msg("Notification")
}

// Multi fans a notification out to every sink
type Multi []models.Notifier

// Send delivers the text to every sink in order
func (m Multi) Send(ctx context.Context, text string) {
	for _, n := range m {
		if n != nil {
			n.Send(ctx, text)
		}
	}
}

// ShouldAlert reports whether a final signal is worth pushing to users.
// Only confirmed directional signals qualify.
func ShouldAlert(signal models.Signal) bool {
	return signal.IsDirectional() && !signal.IsWeak()
}

// EscapeMarkdown escapes user-supplied text such as symbols for Markdown parse mode
func EscapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// FormatAlert renders a confirmed signal as a Markdown message
func FormatAlert(symbol, exchange, resolution string, c models.Confirmation, session string) string {
	var b strings.Builder

	b.WriteString("🚨 *PROFITFORGE PRO CONFIRMED SIGNAL* 🚨\n\n")
	if exchange != "" {
		fmt.Fprintf(&b, "*%s* on %s\n", EscapeMarkdown(symbol), EscapeMarkdown(exchange))
	} else {
		fmt.Fprintf(&b, "*%s*\n", EscapeMarkdown(symbol))
	}
	fmt.Fprintf(&b, "Timeframe: %s\n", resolution)
	fmt.Fprintf(&b, "Signal: *%s* (score %d)\n", c.Final.Label(), c.Score)
	fmt.Fprintf(&b, "Entry: %.4f\n", c.Levels.Entry)
	fmt.Fprintf(&b, "Stop Loss: %.4f\n", c.Levels.StopLoss)
	fmt.Fprintf(&b, "TP1: %.4f | TP2: %.4f\n", c.Levels.TakeProfit1, c.Levels.TakeProfit2)
	if c.Levels.Degenerate {
		b.WriteString("⚠️ ATR unavailable or zero, stop loss equals entry\n")
	}
	fmt.Fprintf(&b, "Confirmed on higher TFs (%s + %s)\n", c.Mid.Label(), c.High.Label())
	if session != "" {
		fmt.Fprintf(&b, "🕒 Session: %s (UTC+1)", session)
	}

	return strings.TrimRight(b.String(), "\n")
}
