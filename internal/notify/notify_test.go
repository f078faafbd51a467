package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Alias1177/ProfitForge/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingNotifier) Send(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		signal models.Signal
		want   bool
	}{
		{models.SignalStrongBuy, true},
		{models.SignalBuy, true},
		{models.SignalSell, true},
		{models.SignalStrongSell, true},
		{models.SignalHold, false},
		{models.SignalBuy.Weak(), false},
		{models.SignalStrongSell.Weak(), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			if got := ShouldAlert(tt.signal); got != tt.want {
				t.Errorf("ShouldAlert(%s) = %v, want %v", tt.signal, got, tt.want)
			}
		})
	}
}

func TestFormatAlert(t *testing.T) {
	c := models.Confirmation{
		Final: models.SignalStrongBuy,
		Score: 80,
		Levels: models.Levels{
			Entry:       100,
			StopLoss:    96,
			TakeProfit1: 103,
			TakeProfit2: 106,
		},
		Entry: models.SignalStrongBuy,
		Mid:   models.SignalBuy,
		High:  models.SignalStrongBuy,
	}

	text := FormatAlert("BTC/USDT", "binance", "1h", c, "London Open")

	for _, want := range []string{
		"PROFITFORGE PRO CONFIRMED SIGNAL",
		"*BTC/USDT* on binance",
		"Timeframe: 1h",
		"Signal: *STRONG BUY* (score 80)",
		"Entry: 100.0000",
		"Stop Loss: 96.0000",
		"TP1: 103.0000 | TP2: 106.0000",
		"Confirmed on higher TFs (BUY + STRONG BUY)",
		"Session: London Open",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("alert missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "ATR unavailable") {
		t.Errorf("non-degenerate alert carries degenerate warning:\n%s", text)
	}

	c.Levels = models.Levels{Entry: 50, StopLoss: 50, TakeProfit1: 51.5, TakeProfit2: 53, Degenerate: true}
	text = FormatAlert("ETH/USDT", "", "4h", c, "")
	if !strings.Contains(text, "ATR unavailable or zero") {
		t.Errorf("degenerate alert missing warning:\n%s", text)
	}
	if !strings.Contains(text, "*ETH/USDT*\n") {
		t.Errorf("symbol line should carry no exchange:\n%s", text)
	}
	if strings.Contains(text, "ETH/USDT* on") || strings.Contains(text, "Session") {
		t.Errorf("unexpected exchange or session line:\n%s", text)
	}
}

func TestFormatAlert_EscapesMarkdown(t *testing.T) {
	c := models.Confirmation{Final: models.SignalSell, Score: 35, Levels: models.Levels{Entry: 1, StopLoss: 1.1, TakeProfit1: 0.97, TakeProfit2: 0.94}}

	tests := []struct {
		name     string
		symbol   string
		exchange string
		want     string
	}{
		{"underscore symbol", "PEPE_USDT", "", "*PEPE\\_USDT*"},
		{"asterisk symbol", "X*Y", "", "*X\\*Y*"},
		{"underscore exchange", "BTC/USDT", "binance_us", "*BTC/USDT* on binance\\_us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FormatAlert(tt.symbol, tt.exchange, "1h", c, "")
			if !strings.Contains(text, tt.want) {
				t.Errorf("alert missing %q:\n%s", tt.want, text)
			}
		})
	}
}

func TestMulti(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	m := Multi{a, nil, b}

	m.Send(context.Background(), "hello")

	if len(a.texts) != 1 || len(b.texts) != 1 {
		t.Fatalf("fan-out delivered %d and %d messages, want 1 each", len(a.texts), len(b.texts))
	}
	if a.texts[0] != "hello" || b.texts[0] != "hello" {
		t.Errorf("unexpected texts %q %q", a.texts[0], b.texts[0])
	}
}

func newTelegramServer(t *testing.T, sendStatus int) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var mu sync.Mutex
	sent := &[]map[string]string{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"forge","username":"forge_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			mu.Lock()
			*sent = append(*sent, map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			})
			mu.Unlock()
			if sendStatus != http.StatusOK {
				w.WriteHeader(sendStatus)
				fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
				return
			}
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, sent
}

func TestTelegramSend(t *testing.T) {
	srv, sent := newTelegramServer(t, http.StatusOK)

	tg, err := NewTelegramWithEndpoint("token", 42, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewTelegramWithEndpoint: %v", err)
	}

	tg.Send(context.Background(), "*BUY* BTC/USDT")
	tg.SendTo(context.Background(), 99, "direct")

	if len(*sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(*sent))
	}
	first := (*sent)[0]
	if first["chat_id"] != "42" || first["text"] != "*BUY* BTC/USDT" || first["parse_mode"] != "Markdown" {
		t.Errorf("unexpected first message %v", first)
	}
	if (*sent)[1]["chat_id"] != "99" {
		t.Errorf("SendTo chat_id = %s, want 99", (*sent)[1]["chat_id"])
	}
}

func TestTelegramSwallowsFailures(t *testing.T) {
	srv, sent := newTelegramServer(t, http.StatusBadRequest)

	tg, err := NewTelegramWithEndpoint("token", 42, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewTelegramWithEndpoint: %v", err)
	}

	tg.Send(context.Background(), "lost")
	if len(*sent) != 1 {
		t.Fatalf("sent %d messages, want 1 attempt", len(*sent))
	}
}

func TestTelegramDisabled(t *testing.T) {
	tg, err := NewTelegram("", 42)
	if err != nil {
		t.Fatalf("NewTelegram: %v", err)
	}
	// Must not panic or block without a bot.
	tg.Send(context.Background(), "logged only")
}
