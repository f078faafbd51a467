package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ProfitForge/models"
)

// Metrics holds the Prometheus collectors for signal generation and alerting
type Metrics struct {
	SignalsTotal     *prometheus.CounterVec // labels: signal
	FetchFailures    *prometheus.CounterVec // labels: provider
	FetchDuration    *prometheus.HistogramVec
	AlertsSent       prometheus.Counter
	BacktestRuns     prometheus.Counter
	ScanDuration     prometheus.Histogram
	ScannedSymbols   *prometheus.CounterVec // labels: outcome
	SubscriberAlerts prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitforge_signals_total",
			Help: "Final confirmed signals by label",
		}, []string{"signal"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitforge_fetch_failures_total",
			Help: "Market data fetches that returned no bars",
		}, []string{"provider"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profitforge_fetch_duration_seconds",
			Help:    "Market data fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profitforge_alerts_sent_total",
			Help: "Alerts pushed to the default chat",
		}),
		BacktestRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profitforge_backtest_runs_total",
			Help: "Completed backtest simulations",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "profitforge_scan_duration_seconds",
			Help:    "Duration of a full multi-symbol scan",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		ScannedSymbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "profitforge_scanned_symbols_total",
			Help: "Per-symbol scan outcomes",
		}, []string{"outcome"}),
		SubscriberAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "profitforge_subscriber_alerts_total",
			Help: "Alerts delivered to subscribed chats",
		}),
	}

	reg.MustRegister(
		m.SignalsTotal,
		m.FetchFailures,
		m.FetchDuration,
		m.AlertsSent,
		m.BacktestRuns,
		m.ScanDuration,
		m.ScannedSymbols,
		m.SubscriberAlerts,
	)

	return m
}

// ObserveSignal counts a final signal
func (m *Metrics) ObserveSignal(signal models.Signal) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(string(signal)).Inc()
}

// ObserveScan records a finished scan
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
}

// ObserveSymbol counts a per-symbol outcome such as "alerted", "quiet" or "skipped"
func (m *Metrics) ObserveSymbol(outcome string) {
	if m == nil {
		return
	}
	m.ScannedSymbols.WithLabelValues(outcome).Inc()
}

// ObserveAlert counts a delivered alert; subscriber alerts are tracked separately
func (m *Metrics) ObserveAlert(subscriber bool) {
	if m == nil {
		return
	}
	if subscriber {
		m.SubscriberAlerts.Inc()
		return
	}
	m.AlertsSent.Inc()
}

// ObserveBacktest counts a completed backtest
func (m *Metrics) ObserveBacktest() {
	if m == nil {
		return
	}
	m.BacktestRuns.Inc()
}

// InstrumentedProvider records latency and empty results of a wrapped provider
type InstrumentedProvider struct {
	name    string
	next    models.MarketDataProvider
	metrics *Metrics
}

// Instrument wraps a provider under the given label
func Instrument(name string, next models.MarketDataProvider, m *Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{name: name, next: next, metrics: m}
}

// Fetch delegates to the wrapped provider
func (p *InstrumentedProvider) Fetch(ctx context.Context, symbol, resolution string, limit int) models.Series {
	start := time.Now()
	series := p.next.Fetch(ctx, symbol, resolution, limit)
	if p.metrics != nil {
		p.metrics.FetchDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
		if len(series) == 0 {
			p.metrics.FetchFailures.WithLabelValues(p.name).Inc()
		}
	}
	return series
}

// HealthStatus tracks scanner liveness for /healthz
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt   time.Time
	LastScanAt  time.Time
	LastSymbols int
	maxAge      time.Duration
}

// NewHealthStatus returns a status that turns stale when no scan finished within maxAge.
// A zero maxAge disables the staleness check.
func NewHealthStatus(maxAge time.Duration) *HealthStatus {
	return &HealthStatus{StartedAt: time.Now(), maxAge: maxAge}
}

// MarkScan records a finished scan
func (h *HealthStatus) MarkScan(at time.Time, symbols int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastScanAt = at
	h.LastSymbols = symbols
}

// ServeHTTP handles the /healthz endpoint
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if h.maxAge > 0 && !h.LastScanAt.IsZero() && time.Since(h.LastScanAt) > h.maxAge {
		status = "stale"
		code = http.StatusServiceUnavailable
	}

	lastScan := ""
	if !h.LastScanAt.IsZero() {
		lastScan = h.LastScanAt.UTC().Format(time.RFC3339)
	}

	body := struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		LastScanAt  string `json:"last_scan_at"`
		LastSymbols int    `json:"last_symbols"`
	}{
		Status:      status,
		Uptime:      time.Since(h.StartedAt).Round(time.Second).String(),
		LastScanAt:  lastScan,
		LastSymbols: h.LastSymbols,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Server exposes /metrics and /healthz
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a metrics and health server
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log.With().Str("component", "metrics").Logger(),
	}
}

// Handler returns the server's mux
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start launches the HTTP server in a goroutine
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
