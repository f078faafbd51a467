package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/internal/analyze"
	"github.com/Alias1177/ProfitForge/internal/metrics"
	"github.com/Alias1177/ProfitForge/internal/notify"
	"github.com/Alias1177/ProfitForge/models"
)

// Per-symbol outcomes
const (
	OutcomeAlerted = "alerted"
	OutcomeQuiet   = "quiet"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// SubscriberStore looks up and updates chats subscribed to a symbol
type SubscriberStore interface {
	SubscribersFor(ctx context.Context, symbol string) ([]models.Subscription, error)
	MarkAlerted(ctx context.Context, chatID int64, symbol string, signal models.Signal) error
	RecordSignal(ctx context.Context, symbol, resolution string, signal models.Signal) error
}

// ChatSender delivers text to an arbitrary chat
type ChatSender interface {
	SendTo(ctx context.Context, chatID int64, text string)
}

// Config controls which symbols are scanned and how
type Config struct {
	Symbols     []string
	Exchange    string
	Resolutions analyze.Resolutions
	Limit       int
	Params      models.Params
	Concurrency int
}

// Result is the outcome of scanning one symbol
type Result struct {
	Symbol       string
	Outcome      string
	Confirmation models.Confirmation
	Err          error
}

// Scanner confirms signals for a watch list and pushes alerts
type Scanner struct {
	provider models.MarketDataProvider
	notifier models.Notifier
	subs     SubscriberStore
	sender   ChatSender
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus
	now      func() time.Time
	cfg      Config
	logger   zerolog.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithSubscribers enables per-chat alerts for subscribed symbols
func WithSubscribers(store SubscriberStore, sender ChatSender) Option {
	return func(s *Scanner) {
		s.subs = store
		s.sender = sender
	}
}

// WithMetrics records scan metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithHealth marks every finished scan on the health status
func WithHealth(h *metrics.HealthStatus) Option {
	return func(s *Scanner) { s.health = h }
}

// WithClock overrides the clock used for the session badge
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a scanner
func New(provider models.MarketDataProvider, notifier models.Notifier, cfg Config, opts ...Option) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Resolutions == (analyze.Resolutions{}) {
		cfg.Resolutions = analyze.DefaultResolutions()
	}

	s := &Scanner{
		provider: provider,
		notifier: notifier,
		now:      time.Now,
		cfg:      cfg,
		logger:   log.With().Str("component", "scanner").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan evaluates every symbol, at most Concurrency at a time.
// Results are returned in watch-list order.
func (s *Scanner) Scan(ctx context.Context) []Result {
	start := time.Now()
	results := make([]Result, len(s.cfg.Symbols))

	sem := make(chan struct{}, s.cfg.Concurrency)
	done := make(chan struct{}, len(s.cfg.Symbols))

	for i, symbol := range s.cfg.Symbols {
		go func(i int, symbol string) {
			defer func() { done <- struct{}{} }()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result{Symbol: symbol, Outcome: OutcomeFailed, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			results[i] = s.scanSymbol(ctx, symbol)
		}(i, symbol)
	}
	for range s.cfg.Symbols {
		<-done
	}

	elapsed := time.Since(start)
	s.metrics.ObserveScan(elapsed)
	if s.health != nil {
		s.health.MarkScan(time.Now(), len(results))
	}
	s.logger.Info().Int("symbols", len(results)).Dur("elapsed", elapsed).Msg("Scan finished")

	return results
}

// Run scans immediately and then on every tick until the context ends
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.Scan(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string) Result {
	logger := s.logger.With().Str("symbol", symbol).Logger()

	conf, err := analyze.ConfirmSymbol(ctx, s.provider, symbol, s.cfg.Resolutions, s.cfg.Limit, s.cfg.Params)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, models.ErrInsufficientData) {
			outcome = OutcomeSkipped
			logger.Warn().Err(err).Msg("Not enough data, skipping symbol")
		} else {
			logger.Error().Err(err).Msg("Failed to confirm signal")
		}
		s.metrics.ObserveSymbol(outcome)
		return Result{Symbol: symbol, Outcome: outcome, Err: err}
	}

	s.metrics.ObserveSignal(conf.Final)
	logger.Info().
		Str("final", string(conf.Final)).
		Int("score", conf.Score).
		Str("mid", string(conf.Mid)).
		Str("high", string(conf.High)).
		Msg("Signal confirmed")

	if !notify.ShouldAlert(conf.Final) {
		s.recordQuiet(ctx, symbol, conf.Final)
		s.metrics.ObserveSymbol(OutcomeQuiet)
		return Result{Symbol: symbol, Outcome: OutcomeQuiet, Confirmation: conf}
	}

	text := notify.FormatAlert(symbol, s.cfg.Exchange, s.cfg.Resolutions.Entry, conf, models.TradingSession(s.now()))
	if s.notifier != nil {
		s.notifier.Send(ctx, text)
		s.metrics.ObserveAlert(false)
	}
	s.alertSubscribers(ctx, symbol, conf.Final, text)

	s.metrics.ObserveSymbol(OutcomeAlerted)
	return Result{Symbol: symbol, Outcome: OutcomeAlerted, Confirmation: conf}
}

// recordQuiet stores a non-alerting signal on the symbol's subscriptions,
// which re-arms them for the next directional signal
func (s *Scanner) recordQuiet(ctx context.Context, symbol string, signal models.Signal) {
	if s.subs == nil {
		return
	}
	if err := s.subs.RecordSignal(ctx, symbol, s.cfg.Resolutions.Entry, signal); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to record quiet signal")
	}
}

// alertSubscribers notifies chats subscribed to the symbol on the entry resolution.
// A chat is not alerted again until the final signal changes, including to a quiet one.
func (s *Scanner) alertSubscribers(ctx context.Context, symbol string, signal models.Signal, text string) {
	if s.subs == nil || s.sender == nil {
		return
	}

	subs, err := s.subs.SubscribersFor(ctx, symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to load subscribers")
		return
	}

	for _, sub := range subs {
		if sub.Resolution != "" && sub.Resolution != s.cfg.Resolutions.Entry {
			continue
		}
		if sub.LastSignal == signal {
			continue
		}
		s.sender.SendTo(ctx, sub.ChatID, text)
		s.metrics.ObserveAlert(true)
		if err := s.subs.MarkAlerted(ctx, sub.ChatID, symbol, signal); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("Failed to record alert")
		}
	}
}
