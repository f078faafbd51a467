package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/analyze"
	"github.com/Alias1177/ProfitForge/internal/metrics"
	"github.com/Alias1177/ProfitForge/internal/notify"
	"github.com/Alias1177/ProfitForge/internal/trading/backtest"
	"github.com/Alias1177/ProfitForge/models"
)

// SubscriptionStore persists which chats want alerts for which symbols
type SubscriptionStore interface {
	Subscribe(ctx context.Context, chatID int64, symbol, resolution string) (*models.Subscription, error)
	Unsubscribe(ctx context.Context, chatID int64, symbol string) (bool, error)
	ListSubscriptions(ctx context.Context, chatID int64) ([]models.Subscription, error)
}

// Settings are the analysis defaults used to answer commands
type Settings struct {
	Symbols      []string
	Exchange     string
	Resolutions  analyze.Resolutions
	Limit        int
	Params       models.Params
	Backtest     backtest.Options
	BacktestDays int
}

// Handler answers bot commands
type Handler struct {
	provider models.MarketDataProvider
	subs     SubscriptionStore
	metrics  *metrics.Metrics
	settings Settings
	now      func() time.Time
	logger   zerolog.Logger
}

// NewHandler creates a command handler. subs may be nil, which disables subscriptions.
func NewHandler(provider models.MarketDataProvider, subs SubscriptionStore, m *metrics.Metrics, settings Settings) *Handler {
	if settings.Resolutions == (analyze.Resolutions{}) {
		settings.Resolutions = analyze.DefaultResolutions()
	}
	return &Handler{
		provider: provider,
		subs:     subs,
		metrics:  m,
		settings: settings,
		now:      time.Now,
		logger:   log.With().Str("component", "bot").Logger(),
	}
}

// Command is a parsed slash command
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits "/signal btc/usdt 4h" into its name and arguments.
// A "@botname" suffix on the command is dropped.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return Command{Name: name, Args: fields[1:]}, true
}

// Handle answers a message from a chat with Markdown text
func (h *Handler) Handle(ctx context.Context, chatID int64, text string) string {
	cmd, ok := ParseCommand(text)
	if !ok {
		return helpText()
	}

	h.logger.Debug().Int64("chat_id", chatID).Str("command", cmd.Name).Strs("args", cmd.Args).Msg("Command received")

	switch cmd.Name {
	case "start", "help":
		return "Welcome to *ProfitForge Pro*!\n\n" + helpText()
	case "signal":
		return h.signal(ctx, cmd.Args)
	case "confirm":
		return h.confirm(ctx, cmd.Args)
	case "backtest":
		return h.backtest(ctx, cmd.Args)
	case "subscribe":
		return h.subscribe(ctx, chatID, cmd.Args)
	case "unsubscribe":
		return h.unsubscribe(ctx, chatID, cmd.Args)
	case "subscriptions":
		return h.listSubscriptions(ctx, chatID)
	case "session":
		return fmt.Sprintf("🕒 Current session: *%s* (UTC+1)", models.TradingSession(h.now()))
	case "pairs":
		return "Supported pairs:\n" + notify.EscapeMarkdown(strings.Join(h.settings.Symbols, "\n"))
	default:
		return "Unknown command.\n\n" + helpText()
	}
}

func helpText() string {
	return strings.Join([]string{
		"/signal SYMBOL [resolution] - signal on one resolution",
		"/confirm SYMBOL [resolution] - signal confirmed on higher timeframes",
		"/backtest SYMBOL [resolution] - replay recent history",
		"/subscribe SYMBOL [resolution] - receive confirmed alerts",
		"/unsubscribe SYMBOL - stop alerts",
		"/subscriptions - list your alerts",
		"/session - current trading session",
		"/pairs - supported pairs",
	}, "\n")
}

// symbolAndResolution reads SYMBOL [resolution] arguments
func (h *Handler) symbolAndResolution(args []string) (string, string, error) {
	if len(args) == 0 {
		return "", "", errors.New("please provide a symbol, e.g. BTC/USDT")
	}
	symbol := strings.ToUpper(args[0])
	resolution := h.settings.Resolutions.Entry
	if len(args) > 1 {
		resolution = strings.ToLower(args[1])
		if _, ok := models.ResolutionDuration(resolution); !ok {
			return "", "", fmt.Errorf("unsupported resolution %s", notify.EscapeMarkdown(resolution))
		}
	}
	return symbol, resolution, nil
}

func (h *Handler) signal(ctx context.Context, args []string) string {
	symbol, resolution, err := h.symbolAndResolution(args)
	if err != nil {
		return err.Error()
	}

	series := h.provider.Fetch(ctx, symbol, resolution, h.settings.Limit)
	a, err := analyze.Analyze(series, h.settings.Params)
	if err != nil {
		return h.failure(symbol, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s\n", notify.EscapeMarkdown(symbol), resolution)
	fmt.Fprintf(&b, "Signal: *%s* (score %d)\n", a.Signal.Label(), a.Score)
	writeLevels(&b, a.Levels)
	fmt.Fprintf(&b, "RSI: %s | MACD: %s / %s | ATR: %s\n",
		a.Snapshot.RSI, a.Snapshot.MACD, a.Snapshot.MACDSignal, a.Snapshot.ATR)
	for _, f := range a.Factors {
		fmt.Fprintf(&b, "• %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) confirm(ctx context.Context, args []string) string {
	symbol, resolution, err := h.symbolAndResolution(args)
	if err != nil {
		return err.Error()
	}

	res := h.settings.Resolutions
	res.Entry = resolution
	c, err := analyze.ConfirmSymbol(ctx, h.provider, symbol, res, h.settings.Limit, h.settings.Params)
	if err != nil {
		return h.failure(symbol, err)
	}
	h.metrics.ObserveSignal(c.Final)

	if notify.ShouldAlert(c.Final) {
		return notify.FormatAlert(symbol, h.settings.Exchange, res.Entry, c, models.TradingSession(h.now()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s* final: *%s* (score %d)\n", notify.EscapeMarkdown(symbol), c.Final.Label(), c.Score)
	fmt.Fprintf(&b, "%s: %s | %s: %s | %s: %s\n",
		res.Entry, c.Entry.Label(), res.Mid, c.Mid.Label(), res.High, c.High.Label())
	b.WriteString("Waiting for higher timeframe confirmation.")
	return b.String()
}

func (h *Handler) backtest(ctx context.Context, args []string) string {
	symbol, resolution, err := h.symbolAndResolution(args)
	if err != nil {
		return err.Error()
	}

	engine := backtest.NewEngine(h.provider, h.settings.Params, h.settings.Backtest)
	result, err := engine.Run(ctx, symbol, resolution, h.settings.BacktestDays)
	if err != nil {
		return h.failure(symbol, err)
	}
	h.metrics.ObserveBacktest()

	s := result.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* %s backtest (%d days)\n", notify.EscapeMarkdown(symbol), resolution, h.settings.BacktestDays)
	fmt.Fprintf(&b, "Trades: %d\n", s.TotalTrades)
	fmt.Fprintf(&b, "Win rate: %.2f%%\n", s.WinRate)
	fmt.Fprintf(&b, "Avg P/L: %.4f\n", s.AvgPL)
	fmt.Fprintf(&b, "Total P/L: %.4f", s.TotalPL)
	if result.Unresolved != nil {
		fmt.Fprintf(&b, "\nOpen position from %.4f (unrealized %.4f)", result.Unresolved.EntryPrice, result.Unresolved.Gain)
	}
	return b.String()
}

func (h *Handler) subscribe(ctx context.Context, chatID int64, args []string) string {
	if h.subs == nil {
		return "Subscriptions are not available."
	}
	symbol, resolution, err := h.symbolAndResolution(args)
	if err != nil {
		return err.Error()
	}

	if _, err := h.subs.Subscribe(ctx, chatID, symbol, resolution); err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Str("symbol", symbol).Msg("Subscribe failed")
		return "Could not save your subscription, please try again later."
	}
	return fmt.Sprintf("✅ Subscribed to *%s* alerts on %s.", notify.EscapeMarkdown(symbol), resolution)
}

func (h *Handler) unsubscribe(ctx context.Context, chatID int64, args []string) string {
	if h.subs == nil {
		return "Subscriptions are not available."
	}
	symbol, _, err := h.symbolAndResolution(args)
	if err != nil {
		return err.Error()
	}

	removed, err := h.subs.Unsubscribe(ctx, chatID, symbol)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Str("symbol", symbol).Msg("Unsubscribe failed")
		return "Could not update your subscriptions, please try again later."
	}
	if !removed {
		return fmt.Sprintf("You are not subscribed to *%s*.", notify.EscapeMarkdown(symbol))
	}
	return fmt.Sprintf("Unsubscribed from *%s*.", notify.EscapeMarkdown(symbol))
}

func (h *Handler) listSubscriptions(ctx context.Context, chatID int64) string {
	if h.subs == nil {
		return "Subscriptions are not available."
	}
	subs, err := h.subs.ListSubscriptions(ctx, chatID)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat_id", chatID).Msg("List subscriptions failed")
		return "Could not load your subscriptions, please try again later."
	}
	if len(subs) == 0 {
		return "No subscriptions yet. Use /subscribe SYMBOL."
	}

	lines := make([]string, 0, len(subs))
	for _, s := range subs {
		line := fmt.Sprintf("%s %s", notify.EscapeMarkdown(s.Symbol), s.Resolution)
		if s.LastSignal != "" {
			line += fmt.Sprintf(" (last: %s)", s.LastSignal.Label())
		}
		lines = append(lines, line)
	}
	return "Your subscriptions:\n" + strings.Join(lines, "\n")
}

func (h *Handler) failure(symbol string, err error) string {
	if errors.Is(err, models.ErrInsufficientData) {
		return fmt.Sprintf("Not enough market data for *%s* yet.", notify.EscapeMarkdown(symbol))
	}
	h.logger.Error().Err(err).Str("symbol", symbol).Msg("Command failed")
	return fmt.Sprintf("Analysis of *%s* failed.", notify.EscapeMarkdown(symbol))
}

func writeLevels(b *strings.Builder, l models.Levels) {
	fmt.Fprintf(b, "Entry: %.4f\n", l.Entry)
	fmt.Fprintf(b, "Stop Loss: %.4f\n", l.StopLoss)
	fmt.Fprintf(b, "TP1: %.4f | TP2: %.4f\n", l.TakeProfit1, l.TakeProfit2)
	if l.Degenerate {
		b.WriteString("⚠️ ATR unavailable or zero, stop loss equals entry\n")
	}
}
